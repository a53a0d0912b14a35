package butlr

import "testing"

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"10000", 10000, false},
		{"10k", 10000, false},
		{"10K", 10000, false},
		{"1m", 1000000, false},
		{"1M", 1000000, false},
		{"  500  ", 500, false},
		{"", 0, true},
		{"0", 0, true},
		{"0k", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseResolution(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResolution(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseResolution(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
