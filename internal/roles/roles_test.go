package roles_test

import (
	"errors"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"caterer/internal/roles"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want roles.Role
	}{
		{"director of photography", roles.Cinematographer},
		{"Executive Producer", roles.Producer},
		{"Created by", roles.WrittenBy},
		{"Casting Director", roles.CastingDirector},
		{"gaffer", roles.Other},
		{"writer", roles.WrittenBy},
		{"screenplay", roles.WrittenBy},
		{"original music by", roles.BasedOn},
		{"based on the novel by", roles.BasedOn},
		{"production designer", roles.ProductionDesigner},
		{"film editor", roles.Editor},
		{"COMPOSER", roles.Composer},
		{"Cinematographer", roles.Cinematographer},
		{"director", roles.Director},
		{"showrunner", roles.Director},
		{"self", roles.Other},
		{"", roles.Other},
	}
	for _, tc := range cases {
		if got := roles.Normalize(tc.raw); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestWeights(t *testing.T) {
	cases := map[roles.Role]float64{
		roles.Cinematographer:    60,
		roles.Composer:           60,
		roles.Director:           50,
		roles.WrittenBy:          40,
		roles.ProductionDesigner: 30,
		roles.Editor:             20,
		roles.BasedOn:            20,
		roles.Producer:           20,
		roles.CastingDirector:    10,
		roles.Other:              1,
		roles.Role("unheard of"): 1,
	}
	for role, want := range cases {
		if got := roles.Weight(role); got != want {
			t.Fatalf("Weight(%q) = %v, want %v", role, got, want)
		}
	}
	if roles.JobWeight("gaffer") != roles.MinWeight {
		t.Fatalf("unmatched job should weigh the minimum")
	}
}

func TestIsStylistic(t *testing.T) {
	if roles.IsStylistic("gaffer") {
		t.Fatal("gaffer should not be stylistic")
	}
	if !roles.IsStylistic("casting") {
		t.Fatal("casting should be stylistic")
	}
}

func TestBestJob(t *testing.T) {
	cases := []struct {
		name string
		jobs []string
		want string
	}{
		{"heavier later job wins", []string{"producer", "director"}, "director"},
		{"tie keeps first", []string{"director", "showrunner"}, "director"},
		{"tie keeps first reversed", []string{"showrunner", "director"}, "showrunner"},
		{"single", []string{"gaffer"}, "gaffer"},
		{"heaviest in the middle", []string{"editor", "composer", "writer"}, "composer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := roles.BestJob(tc.jobs)
			if err != nil {
				t.Fatalf("BestJob returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("BestJob(%v) = %q, want %q", tc.jobs, got, tc.want)
			}
		})
	}

	if _, err := roles.BestJob(nil); !errors.Is(err, roles.ErrNoJobs) {
		t.Fatalf("expected ErrNoJobs, got %v", err)
	}
}

func TestColor(t *testing.T) {
	if got := roles.JobColor("director of photography"); len(got) != 1 || got[0] != text.FgMagenta {
		t.Fatalf("unexpected cinematographer colour: %v", got)
	}
	if got := roles.JobColor("gaffer"); len(got) != 1 || got[0] != text.FgRed {
		t.Fatalf("unexpected other colour: %v", got)
	}
	if got := roles.JobColor(""); len(got) != 1 || got[0] != text.FgRed {
		t.Fatalf("unclassified job should use the other colour, got %v", got)
	}
}
