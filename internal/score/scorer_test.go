package score

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyeonkim/devfeed_bot/internal/feed"
)

func TestScore_Decisions(t *testing.T) {
	s := Default()

	tests := []struct {
		name     string
		article  feed.Article
		lenient  bool
		decision Decision
	}{
		{
			name: "strict source admits on-topic tutorial",
			article: feed.Article{
				Title:   "React 18 Concurrent Features Tutorial",
				RawText: "React 18 Concurrent Features Tutorial react hooks and rendering patterns for typescript developers",
			},
			decision: DecisionPass,
		},
		{
			name: "mobile app development is excluded outright",
			article: feed.Article{
				Title:   "모바일 앱 개발 신기술",
				RawText: "모바일 앱 개발 신기술 소개",
			},
			decision: DecisionExcluded,
		},
		{
			name: "exclusion wins over any number of admit keywords",
			article: feed.Article{
				Title:   "React Native와 typescript로 모바일 앱 만들기",
				RawText: "react native typescript javascript frontend hooks 컴포넌트 튜토리얼",
			},
			decision: DecisionExcluded,
		},
		{
			name: "lenient source auto-admits event content without tech keywords",
			article: feed.Article{
				Title:   "2025 if(kakao) 컨퍼런스 후기",
				RawText: "2025 if(kakao) 컨퍼런스 후기",
			},
			lenient:  true,
			decision: DecisionPass,
		},
		{
			name: "backend-only marker excludes even on lenient sources",
			article: feed.Article{
				Title:   "백엔드 전용 세미나 안내",
				RawText: "백엔드 전용 세미나 안내 개발 자료 포함",
			},
			lenient:  true,
			decision: DecisionExcluded,
		},
		{
			name: "off-topic text is rejected on strict sources",
			article: feed.Article{
				Title:   "오늘의 일반 뉴스",
				RawText: "오늘의 일반 뉴스 모음",
			},
			decision: DecisionReject,
		},
		{
			name:     "empty article scores zero and is rejected",
			article:  feed.Article{},
			decision: DecisionReject,
		},
		{
			name: "discouraged tech drags a thin article below threshold",
			article: feed.Article{
				Title:   "vue 3 마이그레이션",
				RawText: "vue 3 마이그레이션 정리",
			},
			decision: DecisionReject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Score(tt.article, tt.lenient)
			if res.Decision != tt.decision {
				t.Errorf("Score() decision = %q (score %.3f), want %q", res.Decision, res.Score, tt.decision)
			}
		})
	}
}

func TestScore_ExcludedMeansZero(t *testing.T) {
	s := Default()
	res := s.Score(feed.Article{
		Title:   "게임 개발 엔진 react typescript 튜토리얼",
		RawText: "게임 개발 react typescript javascript frontend",
	}, false)

	if res.Decision != DecisionExcluded {
		t.Fatalf("decision = %q, want excluded", res.Decision)
	}
	if res.Score != 0 {
		t.Errorf("excluded score = %.3f, want 0", res.Score)
	}
}

func TestScore_EventGateUsesFixedScore(t *testing.T) {
	s := Default()
	res := s.Score(feed.Article{Title: "사내 밋업 후기", RawText: "사내 밋업 후기"}, true)

	if !res.Admitted() {
		t.Fatalf("event content on lenient source not admitted: %+v", res)
	}
	if res.Score != eventScore {
		t.Errorf("event score = %.3f, want %.3f", res.Score, eventScore)
	}
}

func TestScore_LenientFloor(t *testing.T) {
	s := Default()
	article := feed.Article{
		Title:   "주간 소식",
		RawText: "이번 주 개발 소식 모음",
	}

	t.Run("floor admits on lenient source", func(t *testing.T) {
		res := s.Score(article, true)
		if !res.Admitted() {
			t.Fatalf("lenient floor did not admit: %+v", res)
		}
		if res.Score != lenientFloor {
			t.Errorf("score = %.3f, want floor %.3f", res.Score, lenientFloor)
		}
		if _, ok := res.Breakdown["floor"]; !ok {
			t.Errorf("breakdown missing floor marker: %v", res.Breakdown)
		}
	})

	t.Run("no floor on strict source", func(t *testing.T) {
		res := s.Score(article, false)
		if res.Admitted() {
			t.Fatalf("strict source admitted sub-floor article: %+v", res)
		}
	})

	t.Run("no floor without a generic dev keyword", func(t *testing.T) {
		res := s.Score(feed.Article{Title: "주간 소식", RawText: "이번 주 소식 모음"}, true)
		if res.Score != 0 {
			t.Errorf("score = %.3f, want 0", res.Score)
		}
	})
}

// The backend-only exclusion must run before the lenient floor: a
// backend-only article with a stray generic keyword must not slip
// through. Reordering the gates is a behavior change, not a refactor.
func TestScore_BackendOnlyBeatsFloor(t *testing.T) {
	s := Default()
	res := s.Score(feed.Article{
		Title:   "백엔드 전용 개발 가이드",
		RawText: "백엔드 전용 개발 가이드",
	}, true)

	if res.Decision != DecisionExcluded {
		t.Fatalf("decision = %q, want excluded", res.Decision)
	}
	if res.Score != 0 {
		t.Errorf("score = %.3f, want 0", res.Score)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := Default()
	article := feed.Article{
		Title:   "React 성능 개선과 렌더링 최적화",
		RawText: "React 성능 개선과 렌더링 최적화 리팩토링 사례와 vite 빌드 설정",
	}

	first := s.Score(article, false)
	for i := 0; i < 5; i++ {
		again := s.Score(article, false)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("Score() not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestScore_TitleOutweighsBody(t *testing.T) {
	s := Default()

	inTitle := s.Score(feed.Article{Title: "react 렌더링 분석", RawText: "react 렌더링 분석"}, false)
	inBody := s.Score(feed.Article{Title: "분석", RawText: "분석 react 렌더링"}, false)

	if inTitle.Score <= inBody.Score {
		t.Errorf("title hits should outweigh body hits: title=%.3f body=%.3f", inTitle.Score, inBody.Score)
	}
}

func TestScore_BreakdownCategories(t *testing.T) {
	s := Default()
	res := s.Score(feed.Article{
		Title:   "typescript 테스트 자동화",
		RawText: "typescript 테스트 자동화 jest playwright 도입기",
	}, false)

	for _, category := range []string{"primary", "general", "adjacent", "contextual", "tooling"} {
		if _, ok := res.Breakdown[category]; !ok {
			t.Errorf("breakdown missing %q: %v", category, res.Breakdown)
		}
	}
	if res.Breakdown["tooling"] == 0 {
		t.Errorf("tooling sub-score = 0, want > 0 for jest/playwright text")
	}
}
