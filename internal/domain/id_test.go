package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{" 0F8FAD5B-D9CB-469F-A165-70867728950E ", "0f8fad5b-d9cb-469f-a165-70867728950e", true},
		{"0f8fad5bd9cb469fa16570867728950e", "0f8fad5b-d9cb-469f-a165-70867728950e", true},
		{"isbn-978", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseID(c.in)
		assert.Equal(t, c.want, got, c.in)
		assert.Equal(t, c.ok, ok, c.in)
	}
}
