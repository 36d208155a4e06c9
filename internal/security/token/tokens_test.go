package tokens

import "testing"

func TestGenerateNumericCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 {
			t.Fatalf("length: got %d", len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
		seen[code] = true
	}
	// 50 códigos idénticos sería una falla del generador.
	if len(seen) < 2 {
		t.Fatal("generator produced a constant code")
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(90)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateOpaqueToken(90)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two tokens identical")
	}
	// base64url sin padding: no debe contener '=', '+' ni '/'.
	for _, r := range a {
		if r == '=' || r == '+' || r == '/' {
			t.Fatalf("non-urlsafe char %q", r)
		}
	}
	if len(a) != 120 { // ceil(90*8/6)
		t.Fatalf("encoded length: got %d want 120", len(a))
	}
}

func TestSHA256Hex_Stable(t *testing.T) {
	if SHA256Hex("123456") != SHA256Hex("123456") {
		t.Fatal("hash not deterministic")
	}
	if SHA256Hex("123456") == SHA256Hex("123457") {
		t.Fatal("collision on neighboring codes")
	}
	if got := len(SHA256Hex("x")); got != 64 {
		t.Fatalf("hex length: %d", got)
	}
}
