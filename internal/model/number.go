package model

import (
	"strconv"
	"strings"
)

// MaxLevel is the deepest level a number may describe (domain.object.layer).
const MaxLevel = 3

// Number is a Dewey-style dotted ordinal such as "4", "4.2" or "4.2.1".
type Number string

// Components splits the number on dots.
func (n Number) Components() []string {
	if n == "" {
		return nil
	}
	return strings.Split(string(n), ".")
}

// Level returns the number of components.
func (n Number) Level() int {
	if n == "" {
		return 0
	}
	return strings.Count(string(n), ".") + 1
}

// Parent returns the number with its trailing component removed.
// Level-1 numbers have no parent and return "".
func (n Number) Parent() Number {
	i := strings.LastIndexByte(string(n), '.')
	if i < 0 {
		return ""
	}
	return n[:i]
}

// Truncate keeps the first count components.
func (n Number) Truncate(count int) Number {
	parts := n.Components()
	if count >= len(parts) {
		return n
	}
	if count <= 0 {
		return ""
	}
	return Number(strings.Join(parts[:count], "."))
}

// Child returns the number of the i-th child (1-indexed).
func (n Number) Child(i int) Number {
	return Number(string(n) + "." + strconv.Itoa(i))
}

// IsBareInteger reports whether the number is a single positive integer.
func (n Number) IsBareInteger() bool {
	if n == "" {
		return false
	}
	return isPositiveInt(string(n))
}

// Valid reports whether every component is a positive integer without
// leading zeros and the level does not exceed MaxLevel.
func (n Number) Valid() bool {
	parts := n.Components()
	if len(parts) == 0 || len(parts) > MaxLevel {
		return false
	}
	for _, p := range parts {
		if !isPositiveInt(p) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a component-wise ancestor of (or equal
// to) n. "4" is a prefix of "4.2" but not of "42.1".
func (n Number) HasPrefix(prefix Number) bool {
	if prefix == "" {
		return false
	}
	if n == prefix {
		return true
	}
	return strings.HasPrefix(string(n), string(prefix)+".")
}

// IsDescendantOf reports whether n sits strictly below ancestor.
func (n Number) IsDescendantOf(ancestor Number) bool {
	return n != ancestor && n.HasPrefix(ancestor)
}

func isPositiveInt(s string) bool {
	if s == "" || s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
