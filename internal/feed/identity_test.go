package feed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/law-makers/leadcrawl/internal/browser"
	"github.com/law-makers/leadcrawl/internal/browser/browsertest"
)

func identitySession(t *testing.T) (*browser.Session, *browsertest.FakeDriver) {
	t.Helper()
	f := browsertest.New(nil)
	s := browser.NewSession(f.Launcher(), browser.Options{})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s, f
}

func TestIdentityPreferenceOrder(t *testing.T) {
	s, f := identitySession(t)
	f.OnCall = func(el *browsertest.Element, fn string, args []any) (any, error) {
		if fn == siblingIndexJS {
			if el.Attrs["fail"] == "yes" {
				return nil, errors.New("node detached")
			}
			return 2, nil
		}
		return nil, nil
	}

	cases := []struct {
		name string
		el   *browsertest.Element
		want string
	}{
		{"result index wins", &browsertest.Element{Attrs: map[string]string{"data-result-index": "7", "data-item-id": "x"}}, "idx_7"},
		{"item id", &browsertest.Element{Attrs: map[string]string{"data-item-id": "place-42"}}, "id_place-42"},
		{"aria label without ratings", &browsertest.Element{Attrs: map[string]string{"aria-label": "Lezzet Fırını 4,5 yıldız 1.234 yorum"}}, "aria_Lezzet Fırını  yıldız  yorum"},
		{"markup char sum", &browsertest.Element{Attrs: map[string]string{"innerHTML": "abc"}}, "html_294"},
		{"text prefix", &browsertest.Element{Text: "Kahve Dünyası Moda Şubesi Kadıköy İstanbul"}, "text_Kahve Dünyası Moda Şubesi Kadı"},
		{"sibling position", &browsertest.Element{Attrs: map[string]string{}}, "pos_2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := f.Node(tc.el)
			got := Identity(context.Background(), s, n)
			if got != tc.want {
				t.Errorf("Identity = %q, want %q", got, tc.want)
			}
			if again := Identity(context.Background(), s, n); again != got {
				t.Errorf("identity not deterministic: %q then %q", got, again)
			}
		})
	}

	random := Identity(context.Background(), s, f.Node(&browsertest.Element{Attrs: map[string]string{"fail": "yes"}}))
	if !strings.HasPrefix(random, "err_") {
		t.Errorf("expected random fallback, got %q", random)
	}
}

func TestIdentityResultIndexSeparatesItems(t *testing.T) {
	s, f := identitySession(t)
	a := f.Node(&browsertest.Element{Text: "Same name", Attrs: map[string]string{"data-result-index": "1"}})
	b := f.Node(&browsertest.Element{Text: "Same name", Attrs: map[string]string{"data-result-index": "2"}})
	again := f.Node(&browsertest.Element{Text: "Re-rendered", Attrs: map[string]string{"data-result-index": "1"}})

	ctx := context.Background()
	if Identity(ctx, s, a) == Identity(ctx, s, b) {
		t.Errorf("distinct result indexes collapsed")
	}
	if Identity(ctx, s, a) != Identity(ctx, s, again) {
		t.Errorf("the same result index must collapse")
	}
}

func TestCharCodeSumUsesPrefix(t *testing.T) {
	long := strings.Repeat("a", 100) + "tail that is ignored"
	if charCodeSum(prefix(long, htmlPrefixLen)) != 97*100 {
		t.Errorf("only the first 100 characters count")
	}
}
