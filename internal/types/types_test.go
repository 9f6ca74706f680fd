package types

import (
	"strings"
	"testing"
)

func TestFileDescriptorValidate(t *testing.T) {
	tests := []struct {
		name        string
		descriptor  FileDescriptor
		expectError bool
		errorMsg    string
	}{
		{
			name:       "valid with sample",
			descriptor: FileDescriptor{ID: "f1", Size: 10, MediaType: MediaText, Sample: []byte("hi")},
		},
		{
			name:       "valid with path",
			descriptor: FileDescriptor{ID: "f2", Size: 10, MediaType: MediaImage, Path: "/tmp/a.png"},
		},
		{
			name:       "valid with neither source",
			descriptor: FileDescriptor{ID: "f3", Size: 0, MediaType: MediaBinary},
		},
		{
			name:        "missing id",
			descriptor:  FileDescriptor{Size: 10, MediaType: MediaBinary},
			expectError: true,
			errorMsg:    "id is required",
		},
		{
			name:        "negative size",
			descriptor:  FileDescriptor{ID: "f4", Size: -1, MediaType: MediaBinary},
			expectError: true,
			errorMsg:    "size cannot be negative",
		},
		{
			name:        "bad media type",
			descriptor:  FileDescriptor{ID: "f5", Size: 1, MediaType: "audio"},
			expectError: true,
			errorMsg:    "invalid media type",
		},
		{
			name:        "sample and path together",
			descriptor:  FileDescriptor{ID: "f6", Size: 1, MediaType: MediaText, Sample: []byte("x"), Path: "/tmp/x"},
			expectError: true,
			errorMsg:    "mutually exclusive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.descriptor.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errorMsg)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFingerprintSetComparable(t *testing.T) {
	exact := &FingerprintSet{ExactHash: strings.Repeat("a", 64)}
	perceptual := &FingerprintSet{PerceptualHash: "0000000000000000"}
	embedded := &FingerprintSet{Embedding: []float32{1, 2}}
	empty := &FingerprintSet{}

	if !exact.ComparableWith(exact) {
		t.Error("sets sharing the exact axis must be comparable")
	}
	if exact.ComparableWith(perceptual) {
		t.Error("exact-only vs perceptual-only must not be comparable")
	}
	if perceptual.ComparableWith(embedded) {
		t.Error("perceptual-only vs embedding-only must not be comparable")
	}
	if empty.ComparableWith(exact) {
		t.Error("empty set is comparable with nothing")
	}
	if empty.HasAnySignal() {
		t.Error("empty set must report no signals")
	}
	if !embedded.HasAnySignal() {
		t.Error("embedding counts as a signal")
	}
}

func TestOrderPair(t *testing.T) {
	a, b := OrderPair("zebra", "apple")
	if a != "apple" || b != "zebra" {
		t.Errorf("expected lexicographic order, got (%q, %q)", a, b)
	}
	a, b = OrderPair("apple", "zebra")
	if a != "apple" || b != "zebra" {
		t.Errorf("already ordered pair must be unchanged, got (%q, %q)", a, b)
	}
}

func TestPairScoreValidate(t *testing.T) {
	half := 0.5
	bad := 1.5
	tests := []struct {
		name        string
		pair        PairScore
		expectError bool
	}{
		{name: "valid", pair: PairScore{FileA: "a", FileB: "b", Combined: 0.9, EmbeddingScore: &half}},
		{name: "unordered", pair: PairScore{FileA: "b", FileB: "a", Combined: 0.9}, expectError: true},
		{name: "self pair", pair: PairScore{FileA: "a", FileB: "a", Combined: 0.9}, expectError: true},
		{name: "combined out of range", pair: PairScore{FileA: "a", FileB: "b", Combined: 1.1}, expectError: true},
		{name: "signal out of range", pair: PairScore{FileA: "a", FileB: "b", Combined: 1.0, ExactScore: &bad}, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pair.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDuplicateGroupValidate(t *testing.T) {
	tests := []struct {
		name        string
		group       DuplicateGroup
		expectError bool
	}{
		{
			name:  "valid",
			group: DuplicateGroup{Members: []string{"a", "b"}, Primary: "a", Confidence: 1.0},
		},
		{
			name:        "too small",
			group:       DuplicateGroup{Members: []string{"a"}, Primary: "a", Confidence: 1.0},
			expectError: true,
		},
		{
			name:        "primary not a member",
			group:       DuplicateGroup{Members: []string{"a", "b"}, Primary: "c", Confidence: 1.0},
			expectError: true,
		},
		{
			name:        "confidence out of range",
			group:       DuplicateGroup{Members: []string{"a", "b"}, Primary: "a", Confidence: 1.2},
			expectError: true,
		},
		{
			name:        "negative space wasted",
			group:       DuplicateGroup{Members: []string{"a", "b"}, Primary: "a", Confidence: 1.0, SpaceWasted: -5},
			expectError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.group.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBatchRequestValidate(t *testing.T) {
	over := 1.5
	ok := 0.9
	tests := []struct {
		name        string
		request     BatchRequest
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid",
			request: BatchRequest{
				BatchID:           "batch-1",
				Files:             []FileDescriptor{{ID: "a", MediaType: MediaBinary}},
				ThresholdOverride: &ok,
			},
		},
		{
			name:        "override out of range",
			request:     BatchRequest{ThresholdOverride: &over},
			expectError: true,
			errorMsg:    "threshold override",
		},
		{
			name: "duplicate ids",
			request: BatchRequest{
				Files: []FileDescriptor{
					{ID: "a", MediaType: MediaBinary},
					{ID: "a", MediaType: MediaText},
				},
			},
			expectError: true,
			errorMsg:    "duplicate file id",
		},
		{
			name: "invalid descriptor",
			request: BatchRequest{
				Files: []FileDescriptor{{MediaType: MediaBinary}},
			},
			expectError: true,
			errorMsg:    "file 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errorMsg)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBatchResultValidateAccounting(t *testing.T) {
	valid := BatchResult{
		Groups: []DuplicateGroup{
			{Members: []string{"a", "b"}, Primary: "a", Confidence: 1.0},
		},
		Ungrouped: []string{"c"},
		Stats:     BatchStats{FilesSubmitted: 3},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shortCount := valid
	shortCount.Stats.FilesSubmitted = 4
	if err := shortCount.Validate(); err == nil {
		t.Error("expected accounting mismatch error")
	}

	doubleBooked := BatchResult{
		Groups: []DuplicateGroup{
			{Members: []string{"a", "b"}, Primary: "a", Confidence: 1.0},
		},
		Ungrouped: []string{"a"},
		Stats:     BatchStats{FilesSubmitted: 3},
	}
	if err := doubleBooked.Validate(); err == nil {
		t.Error("expected error for file both grouped and ungrouped")
	}
}
