package aladin

import "testing"

func TestPreferredISBN(t *testing.T) {
	both := Book{ISBN: "8936434128", ISBN13: "9788936434120"}
	if got := both.PreferredISBN(); got != "9788936434120" {
		t.Errorf("PreferredISBN = %q, want ISBN-13", got)
	}

	only10 := Book{ISBN: "8936434128"}
	if got := only10.PreferredISBN(); got != "8936434128" {
		t.Errorf("PreferredISBN = %q, want ISBN-10", got)
	}
}

func TestMainTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"클린 코드 - 애자일 소프트웨어 장인 정신", "클린 코드"},
		{"소년이 온다 (창비 특별판)", "소년이 온다"},
		{"채식주의자", "채식주의자"},
		{"- 이상한 제목", "- 이상한 제목"},
	}

	for _, tt := range tests {
		got := Book{Title: tt.title}.MainTitle()
		if got != tt.want {
			t.Errorf("MainTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
