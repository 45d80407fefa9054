package facade

import (
	"errors"
	"strings"
	"testing"

	"tradelane/internal/planerr"
	"tradelane/internal/tradeplan"
)

func TestParseLocation_SystemOnly(t *testing.T) {
	loc, err := ParseLocation("Alpha")
	if err != nil {
		t.Fatal(err)
	}
	if loc.System != "Alpha" || loc.Station != "" {
		t.Errorf("loc = %+v, want {Alpha, \"\"}", loc)
	}
}

func TestParseLocation_SystemAndStation(t *testing.T) {
	loc, err := ParseLocation("Gilya/Kendrick Enterprise")
	if err != nil {
		t.Fatal(err)
	}
	if loc.System != "Gilya" || loc.Station != "Kendrick Enterprise" {
		t.Errorf("loc = %+v, want {Gilya, Kendrick Enterprise}", loc)
	}
}

func TestParseLocation_SplitsOnFirstSlashOnly(t *testing.T) {
	loc, err := ParseLocation("Alpha/Station/With/Slashes")
	if err != nil {
		t.Fatal(err)
	}
	if loc.System != "Alpha" || loc.Station != "Station/With/Slashes" {
		t.Errorf("loc = %+v, want a single split on the first slash", loc)
	}
}

func TestParseLocation_EmptyIsInvalid(t *testing.T) {
	if _, err := ParseLocation(""); !planerr.Is(err, planerr.InputInvalid) {
		t.Errorf("err = %v, want InputInvalid", err)
	}
	if _, err := ParseLocation("/Station"); !planerr.Is(err, planerr.InputInvalid) {
		t.Errorf("err = %v, want InputInvalid", err)
	}
}

func TestRender_NoTradeSectionPlaceholder(t *testing.T) {
	result := &Result{Sections: []tradeplan.SectionRoute{
		{FromSystemName: "Alpha", ToSystemName: "Beta"},
	}}
	got := Render(result)
	want := "No Route found for Alpha to Beta\n"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_DirectRouteFormat(t *testing.T) {
	result := &Result{Sections: []tradeplan.SectionRoute{{
		FromSystemName: "Alpha",
		ToSystemName:   "Beta",
		RouteName:      "Alpha/Hub -> Beta/Exchange",
		TotalProfit:    400,
		Legs: []tradeplan.Leg{{
			FromSystem: "Alpha", FromStation: "Hub",
			ToSystem: "Beta", ToStation: "Exchange",
			Items:  []tradeplan.Pick{{Name: "Gold", Count: 10, Profit: 400}},
			Profit: 400,
		}},
	}}}

	got := Render(result)
	wantLines := []string{
		"Alpha/Hub",
		"   BUY Gold x10 ",
		"Beta/Exchange",
		"  Profit: 400",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("Render output missing line %q, got:\n%s", line, got)
		}
	}
}

func TestClassifyProviderErr_WrapsRawErrorAsDataMissing(t *testing.T) {
	cause := errors.New("open shard: no such file or directory")
	err := classifyProviderErr("route planning", cause)
	if !planerr.Is(err, planerr.DataMissing) {
		t.Errorf("classifyProviderErr(raw) = %v, want DataMissing", err)
	}
	if !errors.Is(err, cause) {
		t.Error("classifyProviderErr should preserve the underlying cause")
	}
}

func TestClassifyProviderErr_PassesThroughAlreadyTypedErrors(t *testing.T) {
	typed := planerr.New(planerr.NoRoute, "Alpha -> Beta")
	got := classifyProviderErr("route planning", typed)
	if got != typed {
		t.Errorf("classifyProviderErr should not rewrap an already-typed *planerr.Error, got %v", got)
	}
	if !planerr.Is(got, planerr.NoRoute) {
		t.Errorf("classifyProviderErr changed kind: got %v, want NoRoute preserved", got)
	}
}

func TestRender_ProfitIsCommaGrouped(t *testing.T) {
	result := &Result{Sections: []tradeplan.SectionRoute{{
		FromSystemName: "Alpha",
		ToSystemName:   "Beta",
		RouteName:      "Alpha/Hub -> Beta/Exchange",
		TotalProfit:    1234567,
		Legs: []tradeplan.Leg{{
			FromSystem: "Alpha", FromStation: "Hub",
			ToSystem: "Beta", ToStation: "Exchange",
			Items:  []tradeplan.Pick{{Name: "Gold", Count: 10, Profit: 1234567}},
			Profit: 1234567,
		}},
	}}}

	got := Render(result)
	if !strings.Contains(got, "  Profit: 1,234,567\n") {
		t.Errorf("Render output missing comma-grouped profit, got:\n%s", got)
	}
}
