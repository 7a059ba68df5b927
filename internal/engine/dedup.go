package engine

import "sync"

// Dedup — идентификаторы уже обработанных внешних сигналов.
// Ограничен по ёмкости: при переполнении выталкивается самый старый id.
// Сигналы без id сюда не попадают и обрабатываются всегда.
type Dedup struct {
	mu   sync.Mutex
	cap  int
	seen map[string]struct{}
	fifo []string
}

func NewDedup(capacity int) *Dedup {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Dedup{
		cap:  capacity,
		seen: make(map[string]struct{}, capacity),
	}
}

func (d *Dedup) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

func (d *Dedup) MarkSeen(id string) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return
	}
	if len(d.fifo) >= d.cap {
		oldest := d.fifo[0]
		d.fifo = d.fifo[1:]
		delete(d.seen, oldest)
	}
	d.seen[id] = struct{}{}
	d.fifo = append(d.fifo, id)
}
