package tokenize

import (
	"errors"
	"testing"
)

func TestTokenizeJWS(t *testing.T) {
	segs, n, err := Tokenize([]byte("aaa.bbb.ccc"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	want := [3]string{"aaa", "bbb", "ccc"}
	for i, w := range want {
		if string(segs[i]) != w {
			t.Errorf("segs[%d] = %q, want %q", i, segs[i], w)
		}
	}
}

func TestTokenizeJWE(t *testing.T) {
	segs, n, err := Tokenize([]byte("a.b.c.d.e"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}
	want := [5]string{"a", "b", "c", "d", "e"}
	for i, w := range want {
		if string(segs[i]) != w {
			t.Errorf("segs[%d] = %q, want %q", i, segs[i], w)
		}
	}
}

func TestTokenizeMalformed(t *testing.T) {
	cases := []string{
		"",
		"aaa",
		"aaa.bbb",
		"aaa.bbb.ccc.ddd",
		"aaa.bbb.ccc.ddd.eee.fff",
		".bbb.ccc",
	}
	for _, c := range cases {
		if _, _, err := Tokenize([]byte(c)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Tokenize(%q) = %v, want ErrMalformed", c, err)
		}
	}
}
