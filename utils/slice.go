package utils

import "math/rand"

// UniqueUint removes duplicate values from a slice of uints.
func UniqueUint(slice []uint) []uint {
	return Unique(slice)
}

// Unique removes duplicate values while keeping first-seen order.
func Unique[T comparable](slice []T) []T {
	keys := make(map[T]struct{}, len(slice))
	list := make([]T, 0, len(slice))
	for _, entry := range slice {
		if _, seen := keys[entry]; !seen {
			keys[entry] = struct{}{}
			list = append(list, entry)
		}
	}
	return list
}

// Pick returns a uniformly random element. ok is false for an empty slice.
func Pick[T any](items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[rand.Intn(len(items))], true
}

// Shuffle returns a shuffled copy; the input is left untouched.
func Shuffle[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
