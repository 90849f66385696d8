package score

// Tables holds the keyword and pattern data the scorer matches against.
// The default set targets Korean dev-blog content with a frontend-leaning
// editorial line; it is data, not behavior, and callers may replace it.
type Tables struct {
	// Exclusions are strong off-topic markers. Any hit rejects the
	// article outright, before anything else is considered.
	Exclusions []string

	// BackendOnly marks content explicitly scoped to server-side readers.
	// Checked only for lenient sources, before the event gate.
	BackendOnly []string

	// Events auto-admit community content (conferences, meetups) on
	// lenient sources regardless of keyword density.
	Events []string

	// The five scoring categories, from most to least topically specific.
	Primary    []string // primary-stack terms
	General    []string // general web-development terms
	Adjacent   []string // adjacent-domain terms (backend, infra)
	Contextual []string // process and context terms
	Tooling    []string // build/test tooling terms

	// Discouraged lists competing technologies the feed deprioritizes;
	// matches subtract from the score without a lower bound.
	Discouraged []string

	// GenericDev is the broad "this is development content" set backing
	// the lenient score floor.
	GenericDev []string
}

// DefaultTables returns the built-in keyword set. All terms are lowercase;
// matching is substring-based against lowercased text.
func DefaultTables() Tables {
	return Tables{
		Exclusions: []string{
			// mobile / native app development
			"모바일 앱", "mobile app", "android 앱", "ios 앱", "앱 출시",
			"react native", "flutter", "swiftui", "앱스토어", "play store",
			// game development
			"게임 개발", "game development", "게임 엔진", "unity", "unreal engine",
			// hardware reviews
			"하드웨어 리뷰", "hardware review", "언박싱", "unboxing", "벤치마크 리뷰",
			// business / marketing news
			"마케팅 전략", "투자 유치", "인수합병", "매출 실적", "채용 공고",
			// product reviews
			"제품 리뷰", "product review", "사용 후기 이벤트",
		},
		BackendOnly: []string{
			"백엔드 전용", "backend only", "서버 개발자 대상", "server-side only",
			"백엔드 개발자만",
		},
		Events: []string{
			"컨퍼런스", "conference", "밋업", "meetup", "세미나", "해커톤",
			"hackathon", "웨비나", "webinar", "if(kakao)", "deview", "feconf",
			"인프콘", "테크 토크",
		},
		Primary: []string{
			"react", "리액트", "next.js", "typescript", "타입스크립트",
			"javascript", "자바스크립트", "프론트엔드", "frontend", "front-end",
			"jsx", "hooks", "컴포넌트", "component", "상태 관리", "redux",
			"zustand", "렌더링", "rendering", "css", "html",
		},
		General: []string{
			"웹 개발", "web development", "개발자", "developer", "프로그래밍",
			"programming", "코드 리뷰", "code review", "아키텍처", "architecture",
			"설계", "디자인 패턴", "design pattern", "알고리즘", "algorithm",
			"오픈소스", "open source", "튜토리얼", "tutorial",
		},
		Adjacent: []string{
			"백엔드", "backend", "node.js", "graphql", "rest api", "api 설계",
			"데이터베이스", "database", "redis", "kafka", "docker", "kubernetes",
			"devops", "msa", "마이크로서비스", "microservice", "serverless",
		},
		Contextual: []string{
			"성능 개선", "performance", "최적화", "optimization", "리팩토링",
			"refactoring", "테스트", "testing", "배포", "deployment", "장애",
			"incident", "트러블슈팅", "troubleshooting", "회고", "retrospective",
			"마이그레이션", "migration", "모니터링", "monitoring",
		},
		Tooling: []string{
			"webpack", "vite", "esbuild", "eslint", "prettier", "babel",
			"storybook", "jest", "vitest", "playwright", "cypress", "ci/cd",
			"github actions", "pnpm", "turborepo",
		},
		Discouraged: []string{
			"angular", "앵귤러", "vue", "svelte", "jquery", "wordpress",
			"워드프레스", "php",
		},
		GenericDev: []string{
			"개발", "dev", "기술", "tech", "엔지니어", "engineer", "코딩",
			"coding", "소프트웨어", "software",
		},
	}
}
