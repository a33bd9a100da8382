package idea

// option 创意指令候选项
type option struct {
	ID    string
	Label string
}

// archetypes 问题模式目录
var archetypes = []option{
	{ID: "predictive-analytics", Label: "Predictive analytics that forecasts an outcome before it happens"},
	{ID: "anomaly-detection", Label: "Anomaly detection that flags unusual events"},
	{ID: "recommendation-system", Label: "Recommendation system that personalises choices"},
	{ID: "optimization-scheduling", Label: "Optimization and scheduling of scarce resources"},
	{ID: "marketplace-matching", Label: "Two-sided marketplace that matches supply with demand"},
	{ID: "simulation-digital-twin", Label: "Simulation or digital twin for what-if exploration"},
	{ID: "generative-assistant", Label: "Generative assistant that drafts content or plans"},
	{ID: "knowledge-graph", Label: "Knowledge graph with semantic search and reasoning"},
	{ID: "workflow-automation", Label: "Workflow automation that removes repetitive manual steps"},
	{ID: "collaborative-platform", Label: "Collaborative platform that coordinates a community"},
}

// modalities 数据形态目录
var modalities = []option{
	{ID: "time-series", Label: "time-series signals"},
	{ID: "imagery", Label: "images or video"},
	{ID: "natural-language", Label: "natural-language text"},
	{ID: "geospatial", Label: "geospatial and location data"},
	{ID: "audio", Label: "audio and speech"},
	{ID: "tabular-transactions", Label: "tabular transactional records"},
}

// angles 价值侧重点
var angles = []string{
	"privacy-by-design",
	"offline-first",
	"accessibility-first",
	"runs on low-cost hardware",
	"explainable decisions",
	"sustainability and energy efficiency",
	"multilingual by default",
	"real-time collaboration",
	"gamified engagement",
	"open data and interoperability",
}

// contexts 目标使用场景
var contexts = []string{
	"rural or low-connectivity communities",
	"small businesses with tight budgets",
	"students and educators",
	"older adults and their caregivers",
	"emergency and disaster response teams",
	"first-time users on entry-level smartphones",
}

// spices 技术点缀
var spices = []string{
	"federated learning",
	"on-device edge inference",
	"retrieval-augmented generation",
	"reinforcement learning",
	"event-driven architecture",
	"graph algorithms",
	"progressive web app with background sync",
	"computer vision transfer learning",
}

// monitoringKeywords 命中任意关键字的原型视为监控类
var monitoringKeywords = []string{"monitor", "tracking", "track", "detection", "detect", "surveillance"}
