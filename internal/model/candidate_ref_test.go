package model

import (
	"encoding/json"
	"testing"
)

func TestParseCandidateRef(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantWrite bool
		wantID    string
		wantName  string
	}{
		{name: "static", in: "a", wantID: "a"},
		{name: "write-in", in: "custom:Carl", wantWrite: true, wantName: "Carl"},
		{name: "write-in trimmed once", in: "custom:  Carl  ", wantWrite: true, wantName: "Carl"},
		{name: "write-in keeps case", in: "custom:carl", wantWrite: true, wantName: "carl"},
		{name: "marker only inside is static", in: "xcustom:Carl", wantID: "xcustom:Carl"},
		{name: "blank write-in", in: "custom:   ", wantWrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ParseCandidateRef(tt.in)
			if ref.IsWriteIn() != tt.wantWrite {
				t.Fatalf("IsWriteIn() = %v, want %v", ref.IsWriteIn(), tt.wantWrite)
			}
			if ref.ID() != tt.wantID {
				t.Errorf("ID() = %q, want %q", ref.ID(), tt.wantID)
			}
			if ref.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", ref.Name(), tt.wantName)
			}
		})
	}
}

func TestCandidateRef_WireForm(t *testing.T) {
	if got := WriteIn(" Carl ").String(); got != "custom:Carl" {
		t.Errorf("WriteIn.String() = %q, want %q", got, "custom:Carl")
	}
	if got := Static("a").String(); got != "a" {
		t.Errorf("Static.String() = %q, want %q", got, "a")
	}
}

func TestCandidateRef_Validate(t *testing.T) {
	if err := WriteIn("   ").Validate(); err == nil {
		t.Error("blank write-in should not validate")
	}
	if err := Static("").Validate(); err == nil {
		t.Error("empty static ID should not validate")
	}
	if err := Static("a").Validate(); err != nil {
		t.Errorf("Static(a).Validate() = %v", err)
	}
}

func TestCandidateRef_JSON(t *testing.T) {
	v := Vote{CategoryID: "cat1", Candidate: WriteIn("Carl")}

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Vote
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Candidate != v.Candidate {
		t.Errorf("Candidate = %#v, want %#v", got.Candidate, v.Candidate)
	}
}

func TestCandidate_Members(t *testing.T) {
	got := Candidate{Name: "Ann & Bob"}.Members()
	if got != [2]string{"Ann", "Bob"} {
		t.Errorf("Members() = %v", got)
	}

	got = Candidate{Name: "Solo"}.Members()
	if got != [2]string{"Solo", "2"} {
		t.Errorf("Members() for unpaired name = %v", got)
	}
}

func TestCandidate_AvatarURL(t *testing.T) {
	c := Candidate{Name: "Ann Lee"}
	if got, want := c.AvatarURL(), "https://api.dicebear.com/7.x/avataaars/svg?seed=Ann+Lee"; got != want {
		t.Errorf("AvatarURL() = %q, want %q", got, want)
	}

	c.Avatar = "https://example.com/a.png"
	if got := c.AvatarURL(); got != c.Avatar {
		t.Errorf("AvatarURL() = %q, want configured avatar", got)
	}
}
