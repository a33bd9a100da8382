package idea

import "slices"

// DefaultHistorySize 最近使用记录的最大长度
const DefaultHistorySize = 3

// recentQueue 有界 FIFO 队列，超出容量时淘汰最早的元素
type recentQueue struct {
	items []string
	max   int
}

func (q *recentQueue) push(id string) {
	q.items = append(q.items, id)
	if len(q.items) > q.max {
		q.items = q.items[len(q.items)-q.max:]
	}
}

func (q *recentQueue) contains(id string) bool {
	return slices.Contains(q.items, id)
}

func (q *recentQueue) snapshot() []string {
	return slices.Clone(q.items)
}

// History 最近选择的原型与数据形态
type History struct {
	Archetypes []string
	Modalities []string
}
