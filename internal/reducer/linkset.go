package reducer

// linkSet keeps first-seen order and drops exact duplicates.
type linkSet struct {
	seen  map[string]struct{}
	order []string
}

func newLinkSet() *linkSet {
	return &linkSet{seen: make(map[string]struct{}), order: []string{}}
}

func (s *linkSet) add(link string) {
	if _, ok := s.seen[link]; ok {
		return
	}
	s.seen[link] = struct{}{}
	s.order = append(s.order, link)
}

func (s *linkSet) items() []string {
	return s.order
}
