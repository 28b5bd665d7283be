package geometry

import (
	"fmt"
	"os"
	"strings"
)

// The geometry tool identifies each design variable by an opaque ID
// baked into the model file. Wing parameters are mirrored left/right;
// the fin root chord tracks the wing tip chord and the fin sweep is
// fixed.
const finSweepDeg = 45.0

type desVar struct {
	id   string
	path string
}

var desVars = []struct {
	v     desVar
	value func(DesignVector) float64
}{
	{desVar{"ZVZTXUKAZWE", "Lwing:XSec_1:Span"}, func(d DesignVector) float64 { return d.Span }},
	{desVar{"QTIUMVPVMNM", "Lwing:XSec_1:Sweep"}, func(d DesignVector) float64 { return d.Sweep }},
	{desVar{"QDYUWWIMJJA", "Lwing:XSec_1:Taper"}, func(d DesignVector) float64 { return d.Taper }},
	{desVar{"IQQQXPRMWKO", "Lwing:XSec_1:Tip_Chord"}, func(d DesignVector) float64 { return d.Tip }},
	{desVar{"VEBCTUVXEVB", "Lwing:XForm:X_Rel_Location"}, func(d DesignVector) float64 { return d.XLoc }},
	{desVar{"EZZPYZAMUNE", "Lwing:SS_Control_1:Length_C_Start"}, func(d DesignVector) float64 { return d.Ctrl }},
	{desVar{"JOOKRGHFGUK", "Rwing:SS_Control_1:Length_C_Start"}, func(d DesignVector) float64 { return d.Ctrl }},
	{desVar{"QSAPUXPYQWU", "Rwing:XForm:X_Rel_Location"}, func(d DesignVector) float64 { return d.XLoc }},
	{desVar{"FLPOVAIKYMN", "Rwing:XSec_1:Span"}, func(d DesignVector) float64 { return d.Span }},
	{desVar{"OELVSBZPUKI", "Rwing:XSec_1:Sweep"}, func(d DesignVector) float64 { return d.Sweep }},
	{desVar{"WETEDEKPMBU", "Rwing:XSec_1:Taper"}, func(d DesignVector) float64 { return d.Taper }},
	{desVar{"UQYSYUAIZXN", "Rwing:XSec_1:Tip_Chord"}, func(d DesignVector) float64 { return d.Tip }},
	{desVar{"ARLMRMBRQTY", "TailGeom:XSec_1:Root_Chord"}, func(d DesignVector) float64 { return d.Tip }},
	{desVar{"OJGNBNXLMTG", "TailGeom:XSec_1:Sweep"}, func(d DesignVector) float64 { return finSweepDeg }},
}

// FormatDES renders the geometry description artifact: a count header
// line followed by one "id:path: value" line per design variable.
func FormatDES(v DesignVector) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n", len(desVars))
	for _, dv := range desVars {
		fmt.Fprintf(&sb, "%s:%s: %g\n", dv.v.id, dv.v.path, dv.value(v))
	}
	return sb.String()
}

// WriteDES writes the geometry description artifact to path.
func WriteDES(v DesignVector, path string) error {
	if err := os.WriteFile(path, []byte(FormatDES(v)), 0o644); err != nil {
		return fmt.Errorf("failed to write des file %s: %w", path, err)
	}
	return nil
}
