package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"Foo@EXAMPLE.com":    "Foo@example.com",
		"  a@B.org ":         "a@b.org",
		"weird@name@HOST.IO": "weird@name@host.io",
		"no-at-sign":         "no-at-sign",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeEmail(in), "input %q", in)
	}
}
