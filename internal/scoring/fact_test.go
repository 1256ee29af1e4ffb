package scoring

import (
	"errors"
	"reflect"
	"testing"
)

func factgRecord(id string, code int) Record {
	items := map[string]*int{}
	for _, name := range FACTG().ItemNames() {
		items[name] = Code(code)
	}
	return Record{RespondentID: id, Items: items}
}

func TestFACTGAllTwos(t *testing.T) {
	eng := mustEngine(t, FACTG())
	sr, err := eng.ScoreRecord(factgRecord("P1", 2), Options{KeepNValid: true})
	if err != nil {
		t.Fatalf("ScoreRecord: %v", err)
	}
	// Reversal maps 2 to 2 on a 0-4 range, so every scale is count*2.
	want := map[string]float64{"PWB": 14, "SWB": 14, "EWB": 12, "FWB": 14, "FACTG": 54}
	for scale, w := range want {
		if got := score(t, sr, scale); got != w {
			t.Fatalf("%s = %g, want %g", scale, got, w)
		}
	}
	if sr.NValid["FACTG"] != 27 {
		t.Fatalf("NValid[FACTG] = %d, want 27", sr.NValid["FACTG"])
	}
}

func TestFACTGReversedFloor(t *testing.T) {
	eng := mustEngine(t, FACTG())
	r := factgRecord("P1", 2)
	for _, name := range []string{"GP1", "GP2", "GP3", "GP4", "GP5", "GP6", "GP7"} {
		r.Items[name] = Code(4)
	}
	sr, err := eng.ScoreRecord(r, Options{})
	if err != nil {
		t.Fatalf("ScoreRecord: %v", err)
	}
	if got := score(t, sr, "PWB"); got != 0 {
		t.Fatalf("PWB = %g, want 0 for maximal symptom codes", got)
	}
}

func TestFACTGTotalMissingWhenSubscaleMissing(t *testing.T) {
	eng := mustEngine(t, FACTG())
	r := factgRecord("P1", 2)
	for _, name := range []string{"GS1", "GS2", "GS3", "GS4", "GS5", "GS6", "GS7"} {
		r.Items[name] = nil
	}
	sr, err := eng.ScoreRecord(r, Options{KeepNValid: true})
	if err != nil {
		t.Fatalf("ScoreRecord: %v", err)
	}
	if sr.Scores["SWB"] != nil {
		t.Fatalf("SWB = %g, want missing", *sr.Scores["SWB"])
	}
	if sr.Scores["FACTG"] != nil {
		t.Fatalf("FACTG = %g, want missing", *sr.Scores["FACTG"])
	}
	if sr.NValid["FACTG"] != 20 {
		t.Fatalf("NValid[FACTG] = %d, want 20", sr.NValid["FACTG"])
	}
}

func TestFACTBMTComposesBase(t *testing.T) {
	eng := mustEngine(t, FACTBMT())
	items := map[string]*int{}
	for _, name := range FACTG().ItemNames() {
		items[name] = Code(2)
	}
	for _, name := range []string{"BMT1", "BMT2", "BMT3", "BMT4", "BMT5", "BMT6", "BMT7", "BL4", "C6", "C7"} {
		items[name] = Code(1)
	}
	sr, err := eng.ScoreRecord(Record{RespondentID: "P1", Items: items}, Options{KeepNValid: true})
	if err != nil {
		t.Fatalf("ScoreRecord: %v", err)
	}
	// 7 reversed BMT items become 3, the other 3 stay 1: 7*3+3*1 = 24.
	if got := score(t, sr, "BMTS"); got != 24 {
		t.Fatalf("BMTS = %g, want 24", got)
	}
	if got := score(t, sr, "FACTG"); got != 54 {
		t.Fatalf("FACTG = %g, want 54", got)
	}
	if got := score(t, sr, "FACTBMT"); got != 78 {
		t.Fatalf("FACTBMT = %g, want 78", got)
	}
	if got := score(t, sr, "TOI"); got != 52 {
		t.Fatalf("TOI = %g, want 52", got)
	}
	if sr.NValid["FACTBMT"] != 37 || sr.NValid["TOI"] != 24 {
		t.Fatalf("NValid = %v", sr.NValid)
	}
}

func TestFACTBMTScaleOrder(t *testing.T) {
	want := []string{"PWB", "SWB", "EWB", "FWB", "BMTS", "FACTG", "FACTBMT", "TOI"}
	if got := FACTBMT().ScaleNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ScaleNames = %v, want %v", got, want)
	}
}

func TestBuiltinCatalog(t *testing.T) {
	c := BuiltinCatalog()
	want := []string{"FACT-BMT", "FACT-G"}
	if got := c.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys = %v, want %v", got, want)
	}
	if _, err := c.Engine("SF-36"); !errors.Is(err, ErrUnknownQuestionnaire) {
		t.Fatalf("error = %v, want ErrUnknownQuestionnaire", err)
	}
}
