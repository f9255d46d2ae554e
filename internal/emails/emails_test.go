package emails

import (
	"reflect"
	"testing"
)

func TestIsValid(t *testing.T) {
	cases := map[string]bool{
		"a.b+c@sub.example.co": true,
		"jane@firin.com.tr":    true,
		"not-an-email":         false,
		"a@b":                  false,
		"logo@2x.png":          false,
		"x@.example.com":       false,
		"x@exa..mple.com":      false,
		"":                     false,
	}
	for in, want := range cases {
		if got := IsValid(in); got != want {
			t.Errorf("IsValid(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestScanPage(t *testing.T) {
	source := `<html><body>
		<a href="mailto:Sales@Example-Bakery.com?subject=Order">Write us</a>
		<img src="/img/logo@2x.png">
		<p>Reach jane.doe@example-bakery.com today.</p>
	</body></html>`
	body := "Call or write: jane.doe@example-bakery.com, info@example-bakery.com."

	got := ScanPage(source, body)
	want := []string{"sales@example-bakery.com", "jane.doe@example-bakery.com", "info@example-bakery.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScanPage = %v, want %v", got, want)
	}
}

func TestMailtoTargets(t *testing.T) {
	html := `<a href="MAILTO:one%40example.com">x</a><a href="mailto:a@x.com,b@x.com">y</a><a href="/contact">z</a>`
	got := MailtoTargets(html)
	want := []string{"one@example.com", "a@x.com", "b@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MailtoTargets = %v, want %v", got, want)
	}
}

func TestPrioritize(t *testing.T) {
	got := Prioritize([]string{"info@x.com", "jane@x.com", "noreply@x.com"})
	want := []string{"jane@x.com", "info@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prioritize = %v, want %v", got, want)
	}

	onlyExcluded := Prioritize([]string{"noreply@x.com", "NoReply@x.com"})
	if !reflect.DeepEqual(onlyExcluded, []string{"noreply@x.com"}) {
		t.Errorf("excluded addresses should be kept when nothing else exists, got %v", onlyExcluded)
	}

	if got := Prioritize(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestWithoutPlatformDomains(t *testing.T) {
	got := WithoutPlatformDomains([]string{"ads@google.com", "owner@bakery.com"})
	if !reflect.DeepEqual(got, []string{"owner@bakery.com"}) {
		t.Errorf("unexpected filter result %v", got)
	}
}
