package utils

type MapSet[K comparable] struct {
	m map[K]struct{}
}

func NewMapSet[K comparable](vals ...K) MapSet[K] {
	s := MapSet[K]{
		m: make(map[K]struct{}, len(vals)),
	}
	for _, val := range vals {
		s.Add(val)
	}
	return s
}

func (s MapSet[K]) Add(val K) {
	s.m[val] = struct{}{}
}

func (s MapSet[K]) Contains(val K) bool {
	_, ok := s.m[val]
	return ok
}

func (s MapSet[K]) Len() int {
	return len(s.m)
}
