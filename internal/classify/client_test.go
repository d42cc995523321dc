package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
)

type fakeDoer struct {
	status  int
	body    string
	err     error
	delay   time.Duration
	calls   int
	lastReq classifyRequest
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	raw, _ := io.ReadAll(req.Body)
	_ = json.Unmarshal(raw, &f.lastReq)

	if f.delay > 0 {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewBufferString(f.body)),
	}, nil
}

func testFrame() signals.Frame {
	return signals.Frame{ViewportTextLen: 900, PageType: "feed"}
}

func testSignals() signals.Signals {
	return signals.Signals{Zone: signals.ZoneYellow, ApproachingRisk: true, ScrollPxPerSec: 120}
}

func TestClassify_Success(t *testing.T) {
	doer := &fakeDoer{
		status: http.StatusOK,
		body:   `{"recommend":"micro","confidence":0.82,"cooldown_sec":30,"reason_codes":["rapid_feed"]}`,
	}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	dec, err := c.Classify(context.Background(), testFrame(), testSignals(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Recommend != "micro" || dec.Confidence != 0.82 || dec.CooldownSec != 30 {
		t.Errorf("decision = %+v", dec)
	}
	if dec.FromCache {
		t.Error("first call must not be from cache")
	}
	if doer.lastReq.PageType != "feed" || doer.lastReq.Zone != "yellow" {
		t.Errorf("request payload = %+v", doer.lastReq)
	}
}

func TestClassify_Timeout(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{}`, delay: 200 * time.Millisecond}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	_, err := c.Classify(context.Background(), testFrame(), testSignals(), Options{
		Timeout: 10 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestClassify_Non200(t *testing.T) {
	doer := &fakeDoer{status: http.StatusBadGateway, body: `oops`}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	_, err := c.Classify(context.Background(), testFrame(), testSignals(), Options{})
	if !errors.Is(err, ErrStatus) {
		t.Errorf("err = %v, want ErrStatus", err)
	}
}

func TestClassify_MalformedPayload(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"recommend": not-json`}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	_, err := c.Classify(context.Background(), testFrame(), testSignals(), Options{})
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("err = %v, want ErrBadPayload", err)
	}
}

func TestClassify_TransportError(t *testing.T) {
	doer := &fakeDoer{err: errors.New("connection refused")}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	_, err := c.Classify(context.Background(), testFrame(), testSignals(), Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("plain transport error misclassified as timeout: %v", err)
	}
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"recommend":"micro","confidence":4.2}`}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	dec, err := c.Classify(context.Background(), testFrame(), testSignals(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamp at 1.0", dec.Confidence)
	}
}

func TestClassify_Cache(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"recommend":"micro","confidence":0.9}`}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	opts := Options{CacheKey: "example.com|feed", CacheTTL: time.Minute}

	first, err := c.Classify(context.Background(), testFrame(), testSignals(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Classify(context.Background(), testFrame(), testSignals(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doer.calls != 1 {
		t.Errorf("doer called %d times, want 1", doer.calls)
	}
	if first.FromCache || !second.FromCache {
		t.Errorf("FromCache: first=%v second=%v", first.FromCache, second.FromCache)
	}

	// Past the TTL the entry is evicted and the service is hit again.
	clock = clock.Add(2 * time.Minute)
	third, err := c.Classify(context.Background(), testFrame(), testSignals(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doer.calls != 2 {
		t.Errorf("doer called %d times after TTL, want 2", doer.calls)
	}
	if third.FromCache {
		t.Error("expired entry served from cache")
	}
}

func TestClassify_NoCacheKeyMeansNoCache(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"recommend":"micro","confidence":0.9}`}
	c := NewClientWithDoer("http://classifier.local/v1/classify", doer)

	for i := 0; i < 2; i++ {
		if _, err := c.Classify(context.Background(), testFrame(), testSignals(), Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if doer.calls != 2 {
		t.Errorf("doer called %d times, want 2", doer.calls)
	}
}
