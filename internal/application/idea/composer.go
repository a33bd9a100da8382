// Package idea 实现项目创意生成流程：提示词组装、模型回复解析与结果组装
package idea

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"innovative-sphere-api/internal/domain/entity"
	"innovative-sphere-api/pkg/metrics"
)

// RandSource 随机数来源，*rand.Rand 满足该接口
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// globalRand 使用 math/rand/v2 的全局并发安全源
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand 默认随机源
var DefaultRand RandSource = globalRand{}

const seedAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Composer 提示词组装器
// 维护最近使用的原型与数据形态，引导模型避开重复的创意方向
// 同一实例可被并发调用
type Composer struct {
	mu         sync.Mutex
	rnd        RandSource
	archetypes recentQueue
	modalities recentQueue
}

// NewComposer 创建提示词组装器，rnd 为 nil 时使用 DefaultRand
func NewComposer(rnd RandSource) *Composer {
	if rnd == nil {
		rnd = DefaultRand
	}
	return &Composer{
		rnd:        rnd,
		archetypes: recentQueue{max: DefaultHistorySize},
		modalities: recentQueue{max: DefaultHistorySize},
	}
}

// History 返回最近使用记录的快照
func (c *Composer) History() History {
	c.mu.Lock()
	defer c.mu.Unlock()
	return History{
		Archetypes: c.archetypes.snapshot(),
		Modalities: c.modalities.snapshot(),
	}
}

// Compose 生成提示词与本次使用的创意指令
func (c *Composer) Compose(industry, projectType string, interests []string, complexity entity.Complexity) (prompt, directives string) {
	c.mu.Lock()
	recentArchetypes := c.archetypes.snapshot()
	recentModalities := c.modalities.snapshot()

	archetype := c.pickFresh(archetypes, &c.archetypes)
	modality := c.pickFresh(modalities, &c.modalities)
	first, second := c.pickTwo(len(angles))
	contextHint := contexts[c.rnd.IntN(len(contexts))]
	spice := spices[c.rnd.IntN(len(spices))]
	seed := c.seedToken(8)
	c.mu.Unlock()

	metrics.IdeaArchetypeSelected.WithLabelValues("archetype", archetype.ID).Inc()
	metrics.IdeaArchetypeSelected.WithLabelValues("modality", modality.ID).Inc()

	lines := []string{
		fmt.Sprintf("HARD CONSTRAINT: Do not reuse these recently used problem archetypes: %s.", joinOrNone(recentArchetypes)),
		fmt.Sprintf("HARD CONSTRAINT: Do not center the idea on these recently used data modalities: %s.", joinOrNone(recentModalities)),
	}
	if !isMonitoringArchetype(archetype) {
		lines = append(lines, "HARD CONSTRAINT: Do not propose a monitoring, tracking, detection or surveillance system of any kind.")
	}
	lines = append(lines,
		fmt.Sprintf("Problem archetype: %s (%s).", archetype.Label, archetype.ID),
		fmt.Sprintf("Primary data modality: %s (%s).", modality.Label, modality.ID),
		fmt.Sprintf("Value angles to emphasise: %s and %s.", angles[first], angles[second]),
		fmt.Sprintf("Design for this context: %s.", contextHint),
		fmt.Sprintf("Work this technique into the solution: %s.", spice),
	)

	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, line)
	}
	directives = strings.Join(numbered, "\n")

	prompt = fmt.Sprintf(promptTemplate,
		industry,
		projectType,
		joinInterests(interests),
		complexity,
		seed,
		directives,
	)
	return prompt, directives
}

// pickFresh 优先从未在近期使用过的候选中选择，并记录到队列
// 调用方需持有 c.mu
func (c *Composer) pickFresh(catalog []option, recent *recentQueue) option {
	fresh := make([]option, 0, len(catalog))
	for _, o := range catalog {
		if !recent.contains(o.ID) {
			fresh = append(fresh, o)
		}
	}
	if len(fresh) == 0 {
		fresh = catalog
	}
	chosen := fresh[c.rnd.IntN(len(fresh))]
	recent.push(chosen.ID)
	return chosen
}

// pickTwo 无放回地选择两个不同下标
func (c *Composer) pickTwo(n int) (int, int) {
	i := c.rnd.IntN(n)
	j := c.rnd.IntN(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

func (c *Composer) seedToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = seedAlphabet[c.rnd.IntN(len(seedAlphabet))]
	}
	return string(b)
}

func isMonitoringArchetype(o option) bool {
	label := strings.ToLower(o.Label)
	for _, kw := range monitoringKeywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}

func joinInterests(interests []string) string {
	if len(interests) == 0 {
		return "N/A"
	}
	return strings.Join(interests, ", ")
}

const promptTemplate = `Generate a detailed capstone project idea with the following specifications:

Industry: %s
Project Type: %s
User Interests: %s
Complexity Level: %s
Randomization seed: %s

Creative directives (follow every one of them):
%s

Respond with a JSON object containing exactly these fields:
{
  "title": "Project title (max 100 characters)",
  "description": "Detailed project description (200-500 words)",
  "technologies": ["array", "of", "suggested", "technologies"],
  "features": ["array", "of", "key", "features"],
  "objectives": ["array", "of", "learning", "objectives"],
  "challenges": ["array", "of", "potential", "challenges"],
  "estimatedDuration": "Duration estimate (e.g., '3-6 months')"
}

Make the idea innovative, practical, and aligned with the specified industry and project type. Ensure it is appropriate for the complexity level and incorporates the user's interests.
The idea must be fundamentally new, not a rephrasing of a common project or of anything suggested before. Respond with the JSON object only.`
