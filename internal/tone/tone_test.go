package tone

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestGenerateFullScaleLeft(t *testing.T) {
	req := Request{Frequency: 1000, LevelDB: 80, Channel: Left, DurationMs: 1000}
	buf, err := Generate(req, 44100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(buf.Samples) != 88200 {
		t.Fatalf("len = %d, want 88200", len(buf.Samples))
	}
	fullScale := float64(FullScale)
	want := int(fullScale * SafetyMargin)
	if got := buf.Peak(); got < want-2 || got > want {
		t.Errorf("peak = %d, want ~%d", got, want)
	}
}

func TestGenerateFarBelowFloorIsSilent(t *testing.T) {
	req := Request{Frequency: 1000, LevelDB: -100, Channel: Left, DurationMs: 1000}
	buf, err := GenerateDefault(req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, s := range buf.Samples {
		if s != 0 {
			t.Fatalf("sample %d = %d, want 0", i, s)
		}
	}
}

func TestGenerateRightChannel440(t *testing.T) {
	req := Request{Frequency: 440, LevelDB: 40, Channel: Right, DurationMs: 500}
	buf, err := Generate(req, 44100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(buf.Samples) != 44100 {
		t.Fatalf("len = %d, want 44100", len(buf.Samples))
	}
	a := DefaultCalibration.Amplitude(40)
	for i := 0; i < buf.Frames(); i++ {
		if buf.Samples[2*i] != 0 {
			t.Fatalf("left sample %d = %d, want 0", i, buf.Samples[2*i])
		}
		want := int16(math.Sin(2*math.Pi*440*float64(i)/44100) * a * FullScale)
		if buf.Samples[2*i+1] != want {
			t.Fatalf("right sample %d = %d, want %d", i, buf.Samples[2*i+1], want)
		}
	}
}

func TestGenerateChannelRouting(t *testing.T) {
	for _, ch := range []Channel{Left, Right, Both} {
		buf, err := Generate(Request{Frequency: 1000, LevelDB: 70, Channel: ch, DurationMs: 50}, 44100)
		if err != nil {
			t.Fatalf("%s: %v", ch, err)
		}
		nonzero := false
		for i := 0; i < buf.Frames(); i++ {
			l, r := buf.Samples[2*i], buf.Samples[2*i+1]
			switch ch {
			case Left:
				if r != 0 {
					t.Fatalf("left: right slot %d = %d", i, r)
				}
				nonzero = nonzero || l != 0
			case Right:
				if l != 0 {
					t.Fatalf("right: left slot %d = %d", i, l)
				}
				nonzero = nonzero || r != 0
			case Both:
				if l != r {
					t.Fatalf("both: frame %d L=%d R=%d", i, l, r)
				}
				nonzero = nonzero || l != 0
			}
		}
		if !nonzero {
			t.Errorf("%s: buffer is silent", ch)
		}
	}
}

func TestGenerateZeroDuration(t *testing.T) {
	buf, err := GenerateDefault(Request{Frequency: 1000, LevelDB: 40, DurationMs: 0})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(buf.Samples) != 0 {
		t.Errorf("len = %d, want 0", len(buf.Samples))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	req := Request{Frequency: 1234.5, LevelDB: 63.2, Channel: Both, DurationMs: 200}
	a, err := Generate(req, 48000)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(req, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Samples) != len(b.Samples) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Samples), len(b.Samples))
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, a.Samples[i], b.Samples[i])
		}
	}
}

func TestGenerateConcurrent(t *testing.T) {
	req := Request{Frequency: 500, LevelDB: 60, Channel: Left, DurationMs: 100}
	want, err := GenerateDefault(req)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := GenerateDefault(req)
			if err != nil {
				t.Error(err)
				return
			}
			for i := range want.Samples {
				if got.Samples[i] != want.Samples[i] {
					t.Errorf("sample %d differs", i)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestGenerateSampleRange(t *testing.T) {
	levels := []float64{-200, 0, 40, 79.9, 80, 80.1, 120, math.Inf(1), math.Inf(-1), math.NaN()}
	freqs := []float64{20, 1000, 22050, 30000}
	for _, lvl := range levels {
		for _, f := range freqs {
			buf, err := Generate(Request{Frequency: f, LevelDB: lvl, Channel: Both, DurationMs: 20}, 44100)
			if err != nil {
				t.Fatalf("f=%v lvl=%v: %v", f, lvl, err)
			}
			for i, s := range buf.Samples {
				if s < -FullScale || s > FullScale {
					t.Fatalf("f=%v lvl=%v: sample %d = %d out of range", f, lvl, i, s)
				}
			}
		}
	}
}

func TestGenerateMonotonicPeak(t *testing.T) {
	prev := -1
	for lvl := -20.0; lvl <= 90; lvl += 5 {
		buf, err := GenerateDefault(Request{Frequency: 1000, LevelDB: lvl, Channel: Left, DurationMs: 100})
		if err != nil {
			t.Fatal(err)
		}
		peak := buf.Peak()
		if peak < prev {
			t.Fatalf("peak at %v dB = %d, below previous %d", lvl, peak, prev)
		}
		if lvl >= 20 && lvl <= MaxDB && peak <= prev {
			t.Fatalf("peak at %v dB = %d, not above previous %d", lvl, peak, prev)
		}
		prev = peak
	}
}

func TestEstimateLevelRoundTrip(t *testing.T) {
	for _, lvl := range []float64{30, 40, 55.5, 70, 80} {
		buf, err := GenerateDefault(Request{Frequency: 1000, LevelDB: lvl, Channel: Right, DurationMs: 100})
		if err != nil {
			t.Fatal(err)
		}
		decoded := FromBytes(buf.Bytes(), buf.SampleRate)
		got := decoded.EstimateLevelDB(DefaultCalibration)
		if math.Abs(got-lvl) > 0.1 {
			t.Errorf("level %v: estimated %v", lvl, got)
		}
	}
}

func TestGenerateAboveNyquistAccepted(t *testing.T) {
	if _, err := Generate(Request{Frequency: 40000, LevelDB: 60, DurationMs: 10}, 44100); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerateDurationTooLarge(t *testing.T) {
	_, err := Generate(Request{Frequency: 1000, LevelDB: 40, DurationMs: math.MaxInt}, 44100)
	if !errors.Is(err, ErrDurationTooLarge) {
		t.Fatalf("err = %v, want ErrDurationTooLarge", err)
	}
	_, err = Generate(Request{Frequency: 1000, LevelDB: 40, DurationMs: 24 * 60 * 60 * 1000}, 44100)
	if !errors.Is(err, ErrDurationTooLarge) {
		t.Fatalf("err = %v, want ErrDurationTooLarge", err)
	}
}

func TestGenerateInvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		rate int
		want error
	}{
		{"zero rate", Request{Frequency: 1000, DurationMs: 10}, 0, ErrInvalidSampleRate},
		{"negative duration", Request{Frequency: 1000, DurationMs: -1}, 44100, ErrInvalidDuration},
		{"zero frequency", Request{Frequency: 0, DurationMs: 10}, 44100, ErrInvalidFrequency},
		{"nan frequency", Request{Frequency: math.NaN(), DurationMs: 10}, 44100, ErrInvalidFrequency},
	}
	for _, tc := range cases {
		if _, err := Generate(tc.req, tc.rate); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestNumSamplesTruncates(t *testing.T) {
	n, err := NumSamples(1, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 44 {
		t.Errorf("NumSamples(1, 44100) = %d, want 44", n)
	}
}

func TestParseChannel(t *testing.T) {
	cases := map[string]Channel{"": Left, "left": Left, "right": Right, "both": Both, "r": Right}
	for in, want := range cases {
		got, err := ParseChannel(in)
		if err != nil || got != want {
			t.Errorf("ParseChannel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseChannel("center"); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestDefaultRequest(t *testing.T) {
	r := DefaultRequest()
	if r.Frequency != 1000 || r.LevelDB != 40 || r.Channel != Left || r.DurationMs != 1000 {
		t.Errorf("DefaultRequest() = %+v", r)
	}
}
