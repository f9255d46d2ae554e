package feed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/chromedp/cdproto/cdp"

	"github.com/law-makers/leadcrawl/internal/browser"
)

const siblingIndexJS = `function() {
	if (!this.parentNode) { return -1; }
	return Array.prototype.indexOf.call(this.parentNode.children, this);
}`

// decimalPattern strips ratings such as "4.5" or "4,5" from labels; they
// change between observations of the same item.
var decimalPattern = regexp.MustCompile(`\d+[.,]\d+`)

const (
	ariaPrefixLen = 50
	htmlPrefixLen = 100
	textPrefixLen = 30
)

// Identity derives the in-run dedup key of a feed item. Preference order:
// result index, item id, aria-label without decimals, char-code sum of the
// markup prefix, text prefix, sibling position, random.
//
// The markup sum collides easily. Under-counting on collision is accepted.
func Identity(ctx context.Context, s *browser.Session, item *cdp.Node) string {
	if v := s.SafeAttr(ctx, item, "data-result-index"); v != "" {
		return "idx_" + v
	}
	if v := s.SafeAttr(ctx, item, "data-item-id"); v != "" {
		return "id_" + v
	}
	if v := s.SafeAttr(ctx, item, "aria-label"); v != "" {
		return "aria_" + prefix(decimalPattern.ReplaceAllString(v, ""), ariaPrefixLen)
	}
	if v := s.SafeAttr(ctx, item, "innerHTML"); v != "" {
		return fmt.Sprintf("html_%d", charCodeSum(prefix(v, htmlPrefixLen)))
	}
	if v := s.SafeText(ctx, item); v != "" {
		return "text_" + prefix(v, textPrefixLen)
	}
	var idx int
	if err := s.ExecOn(ctx, item, siblingIndexJS, &idx); err == nil && idx >= 0 {
		return fmt.Sprintf("pos_%d", idx)
	}
	return fmt.Sprintf("err_%d", 1000+rand.IntN(9000))
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func charCodeSum(s string) int {
	sum := 0
	for _, r := range s {
		sum += int(r)
	}
	return sum
}

// itemLabel is a short human name for status lines.
func itemLabel(ctx context.Context, s *browser.Session, item *cdp.Node) string {
	label := s.SafeText(ctx, item)
	if label == "" {
		label = s.SafeAttr(ctx, item, "aria-label")
	}
	if i := strings.IndexByte(label, '\n'); i >= 0 {
		label = label[:i]
	}
	if label == "" {
		return "unnamed business"
	}
	return prefix(strings.TrimSpace(label), 60)
}
