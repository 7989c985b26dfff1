package chunk

// Pool is the ordered chunk table owned by one conversion run. Chunks are
// only ever added; ids are assigned in insertion order and stay stable for
// the lifetime of the run.
type Pool struct {
	chunks []*Chunk
	index  map[Hash][]int
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{index: make(map[Hash][]int)}
}

// Len returns the number of distinct chunks.
func (p *Pool) Len() int { return len(p.chunks) }

// Chunk returns the chunk with the given id.
func (p *Pool) Chunk(id int) *Chunk { return p.chunks[id] }

// Chunks returns the chunks in id order.
func (p *Pool) Chunks() []*Chunk { return p.chunks }

// Lookup returns the id of a chunk identical to c, if one exists. Hash hits
// are confirmed by byte comparison.
func (p *Pool) Lookup(c *Chunk) (int, bool) {
	for _, id := range p.index[c.Hash()] {
		if p.chunks[id].Equal(c) {
			return id, true
		}
	}
	return 0, false
}

// Add returns the id of c, inserting it if no identical chunk exists.
func (p *Pool) Add(c *Chunk) (id int, added bool) {
	h := c.Hash()
	for _, id := range p.index[h] {
		if p.chunks[id].Equal(c) {
			return id, false
		}
	}
	id = len(p.chunks)
	p.chunks = append(p.chunks, c)
	p.index[h] = append(p.index[h], id)
	return id, true
}

// TotalCost returns the summed VRAM cost of every chunk in tile units.
func (p *Pool) TotalCost() int {
	total := 0
	for _, c := range p.chunks {
		total += c.Cost()
	}
	return total
}
