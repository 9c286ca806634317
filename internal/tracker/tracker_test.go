package tracker

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vincentbai/monotrack/internal/ctn"
	"github.com/vincentbai/monotrack/internal/dom"
	"github.com/vincentbai/monotrack/internal/dom/htmldoc"
)

const landingPage = `<html><body>
<button id="buy" data-mono-events="click" data-mono-action="/buy">Buy</button>
<a id="more" href="/more" data-mono-events="click  focus " data-mono-action="/more">More</a>
<div id="events-only" data-mono-events="click">x</div>
<div id="action-only" data-mono-action="/nope">x</div>
<div id="empty-action" data-mono-events="click" data-mono-action="">x</div>
<a id="call" href="tel:0" data-mono-type="tel">(800) 000-0000</a>
<span id="call-text" data-mono-type="tel">(800) 000-0000</span>
<span id="not-phone" data-mono-type="telephone">keep</span>
</body></html>`

func parse(t *testing.T, query, cookie string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(landingPage, query, cookie)
	require.NoError(t, err)
	return doc
}

func element(t *testing.T, doc *htmldoc.Document, id string) *htmldoc.Element {
	t.Helper()
	el, ok := doc.ElementByID(id)
	require.True(t, ok, "element %q not found", id)
	return el
}

func ids(elements []dom.Element) []string {
	var out []string
	for _, el := range elements {
		id, _ := el.Attribute("id")
		out = append(out, id)
	}
	return out
}

type recorder struct {
	calls []string
}

func (r *recorder) named(name string) Func {
	return func(action string) {
		r.calls = append(r.calls, name+":"+action)
	}
}

func TestScan(t *testing.T) {
	doc := parse(t, "", "")

	res := Scan(doc, dom.Attributes{})
	assert.Equal(t, []string{"buy", "more"}, ids(res.Trackable))
	assert.Equal(t, []string{"call", "call-text"}, ids(res.Phones))
}

func TestScanCustomAttributes(t *testing.T) {
	doc, err := htmldoc.ParseString(`<p id="p" data-ev="click" data-act="/p" data-kind="phone">1</p>`, "", "")
	require.NoError(t, err)

	res := Scan(doc, dom.Attributes{Events: "data-ev", Action: "data-act", Phone: "data-kind", PhoneValue: "phone"})
	assert.Equal(t, []string{"p"}, ids(res.Trackable))
	assert.Equal(t, []string{"p"}, ids(res.Phones))
}

func TestAddTracker(t *testing.T) {
	tr := New(parse(t, "", ""))

	assert.ErrorIs(t, tr.AddTracker(nil), ErrNilTracker)
	assert.Equal(t, 0, tr.TrackerCount())

	rec := &recorder{}
	require.NoError(t, tr.AddTracker(rec.named("first")))
	require.NoError(t, tr.AddTracker(rec.named("second")))
	assert.Equal(t, 2, tr.TrackerCount())

	require.NoError(t, tr.Track("/a"))
	require.NoError(t, tr.Track("/b"))
	assert.Equal(t, []string{"first:/a", "second:/a", "first:/b", "second:/b"}, rec.calls)
}

func TestTrackWithoutTrackers(t *testing.T) {
	tr := New(parse(t, "", ""))
	assert.NoError(t, tr.Track("/nobody-listens"))
}

func TestAddObjectFromAttributes(t *testing.T) {
	doc := parse(t, "", "")
	tr := New(doc)
	rec := &recorder{}
	require.NoError(t, tr.AddTracker(rec.named("t")))

	more := element(t, doc, "more")
	bound, err := tr.AddObject(more, "", "")
	require.NoError(t, err)
	assert.Same(t, more, bound)
	assert.Equal(t, []Bound{{Events: []string{"click", "focus"}, Action: "/more"}}, tr.Bindings())
	assert.Equal(t, 2, doc.ListenerCount(more))

	doc.Fire(more, "focus")
	doc.Fire(more, "click")
	assert.Equal(t, []string{"t:/more", "t:/more"}, rec.calls)
}

func TestAddObjectExplicitArguments(t *testing.T) {
	doc := parse(t, "", "")
	tr := New(doc)
	rec := &recorder{}
	require.NoError(t, tr.AddTracker(rec.named("t")))

	el := element(t, doc, "action-only")
	_, err := tr.AddObject(el, "mouseover", "/hover")
	require.NoError(t, err)

	doc.Fire(el, "mouseover")
	assert.Equal(t, []string{"t:/hover"}, rec.calls)
}

func TestAddObjectCapturesActionAtBindTime(t *testing.T) {
	doc := parse(t, "", "")
	tr := New(doc)
	rec := &recorder{}
	require.NoError(t, tr.AddTracker(rec.named("t")))

	buy := element(t, doc, "buy")
	_, err := tr.AddObject(buy, "", "")
	require.NoError(t, err)

	buy.SetAttribute("data-mono-action", "/changed")
	doc.Fire(buy, "click")
	assert.Equal(t, []string{"t:/buy"}, rec.calls)
}

func TestAddObjectFailures(t *testing.T) {
	doc := parse(t, "", "")
	tr := New(doc)

	_, err := tr.AddObject(nil, "click", "/x")
	assert.ErrorIs(t, err, ErrNoElement)

	eventsOnly := element(t, doc, "events-only")
	_, err = tr.AddObject(eventsOnly, "", "")
	assert.ErrorIs(t, err, ErrNoAction)
	assert.Equal(t, 0, doc.ListenerCount(eventsOnly))

	emptyAction := element(t, doc, "empty-action")
	_, err = tr.AddObject(emptyAction, "", "")
	assert.ErrorIs(t, err, ErrNoAction)
	assert.Equal(t, 0, doc.ListenerCount(emptyAction))

	actionOnly := element(t, doc, "action-only")
	_, err = tr.AddObject(actionOnly, "", "")
	assert.ErrorIs(t, err, ErrNoEvents)

	_, err = tr.AddObject(actionOnly, "   ", "")
	assert.ErrorIs(t, err, ErrNoEvents)
	assert.Equal(t, 0, doc.ListenerCount(actionOnly))

	assert.Empty(t, tr.Bindings())
}

func TestDataStore(t *testing.T) {
	tr := New(parse(t, "", ""))

	order := map[string]any{"id": "A-1", "total": 42.5}
	tr.SetData("order", order)

	got, ok := tr.GetData("order")
	require.True(t, ok)
	assert.Equal(t, order, got)

	tr.SetData("order", "replaced")
	got, ok = tr.GetData("order")
	require.True(t, ok)
	assert.Equal(t, "replaced", got)

	_, ok = tr.GetData("missing")
	assert.False(t, ok)
}

func TestInitializeWithCTNFromURL(t *testing.T) {
	doc := parse(t, "mono_ctn=%2B1%20(555)%20123-4567", "")
	tr := New(doc)
	rec := &recorder{}
	require.NoError(t, tr.AddTracker(rec.named("t")))

	require.NoError(t, tr.Initialize())

	value, ok := tr.CTN()
	require.True(t, ok)
	assert.Equal(t, "+1 (555) 123-4567", value)
	assert.Equal(t, []string{"mono_ctn=+1 (555) 123-4567"}, doc.WrittenCookies())

	call := element(t, doc, "call")
	assert.Equal(t, "+1 (555) 123-4567", call.TextContent())
	href, _ := call.Attribute("href")
	assert.Equal(t, "tel:+15551234567", href)
	assert.Equal(t, "+1 (555) 123-4567", element(t, doc, "call-text").TextContent())
	assert.Equal(t, "keep", element(t, doc, "not-phone").TextContent())

	assert.Len(t, tr.Bindings(), 2)
	doc.Fire(element(t, doc, "buy"), "click")
	assert.Equal(t, []string{"t:/buy"}, rec.calls)
}

func TestInitializeWithCTNFromCookie(t *testing.T) {
	doc := parse(t, "", "sid=9; mono_ctn=800%20555")
	tr := New(doc, WithCookieOptions(ctn.CookieOptions{MaxAge: time.Hour, Path: "/"}))

	require.NoError(t, tr.Initialize())

	value, ok := tr.CTN()
	require.True(t, ok)
	assert.Equal(t, "800%20555", value)
	assert.Equal(t, []string{"mono_ctn=800%20555; max-age=3600; path=/"}, doc.WrittenCookies())
	assert.Equal(t, "800%20555", element(t, doc, "call-text").TextContent())
}

func TestInitializeWithoutCTNLeavesPhonesAlone(t *testing.T) {
	doc := parse(t, "utm_source=x", "sid=9")
	var before bytes.Buffer
	require.NoError(t, doc.Render(&before))

	tr := New(doc)
	require.NoError(t, tr.Initialize())

	_, ok := tr.CTN()
	assert.False(t, ok)
	assert.Empty(t, doc.WrittenCookies())
	assert.Equal(t, 0, tr.ReplaceCalls())

	var after bytes.Buffer
	require.NoError(t, doc.Render(&after))
	assert.Equal(t, before.String(), after.String())
}

func TestInitializeRunsOnce(t *testing.T) {
	tr := New(parse(t, "", ""))
	require.NoError(t, tr.Initialize())
	assert.ErrorIs(t, tr.Initialize(), ErrAlreadyInitialized)
	assert.Len(t, tr.Bindings(), 2)
}

func TestDetectCallTrackingDirect(t *testing.T) {
	doc := parse(t, "", "")
	tr := New(doc)

	_, ok := tr.DetectCallTracking("", "")
	assert.False(t, ok)
	assert.Empty(t, doc.WrittenCookies())

	value, ok := tr.DetectCallTracking("a=1&mono_ctn=555-0100", "")
	require.True(t, ok)
	assert.Equal(t, "555-0100", value)

	assert.Equal(t, 2, tr.ReplaceCalls())
	assert.Equal(t, 2, tr.ReplaceCalls())
	href, _ := element(t, doc, "call").Attribute("href")
	assert.Equal(t, "tel:5550100", href)
}

func TestCloseDetachesListeners(t *testing.T) {
	doc := parse(t, "", "")
	tr := New(doc)
	rec := &recorder{}
	require.NoError(t, tr.AddTracker(rec.named("t")))
	require.NoError(t, tr.Initialize())

	buy := element(t, doc, "buy")
	require.Equal(t, 1, doc.ListenerCount(buy))

	require.Len(t, tr.Bindings(), 2)

	tr.Close()
	tr.Close()

	assert.Empty(t, tr.Bindings())
	assert.Equal(t, 0, doc.ListenerCount(buy))
	assert.Equal(t, 0, doc.Fire(buy, "click"))
	assert.Empty(t, rec.calls)

	assert.ErrorIs(t, tr.Track("/late"), ErrClosed)
	assert.ErrorIs(t, tr.AddTracker(rec.named("late")), ErrClosed)
	_, err := tr.AddObject(buy, "", "")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, tr.Initialize(), ErrClosed)
}

func TestInitializeLogs(t *testing.T) {
	var buf bytes.Buffer
	tr := New(parse(t, "mono_ctn=1", ""), WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, tr.Initialize())

	out := buf.String()
	assert.True(t, strings.Contains(out, tr.ID()))
	assert.Contains(t, out, "2 of 2 trackable elements bound")
	assert.Contains(t, out, "applied to 2 elements")
}

func TestCloseLogsUnboundElements(t *testing.T) {
	var buf bytes.Buffer
	tr := New(parse(t, "", ""), WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, tr.Initialize())

	tr.Close()
	assert.Contains(t, buf.String(), "closed, 2 elements unbound, 3 listeners removed")
}
