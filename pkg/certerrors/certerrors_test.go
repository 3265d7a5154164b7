package certerrors

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testID ID = "Test diagnostic"

func TestU_CertErrors_AddAndQuery(t *testing.T) {
	errs := New()
	errs.AddError(testID, DERParams2("a", []byte{0x01}, "b", nil))
	errs.AddWarning("Other", nil)

	if errs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", errs.Len())
	}
	if !errs.ContainsError(testID) {
		t.Error("ContainsError(testID) = false")
	}
	if errs.ContainsError("Other") {
		t.Error("ContainsError() should ignore warnings")
	}
	if !errs.ContainsAnyErrorWithSeverity(SeverityWarning) {
		t.Error("ContainsAnyErrorWithSeverity(SeverityWarning) = false")
	}

	want := []Node{
		{ID: testID, Severity: SeverityHigh, Params: Params{{"a", []byte{0x01}}, {"b", []byte{}}}},
		{ID: "Other", Severity: SeverityWarning},
	}
	if diff := cmp.Diff(want, errs.Nodes()); diff != "" {
		t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
	}
}

func TestU_CertErrors_NilReceiver(t *testing.T) {
	var errs *CertErrors
	errs.AddError(testID, nil)
	errs.AddWarning(testID, nil)
	if errs.Len() != 0 || errs.Nodes() != nil || errs.ContainsError(testID) || errs.String() != "" {
		t.Error("nil CertErrors should behave as empty")
	}
}

func TestU_CertErrors_String(t *testing.T) {
	errs := New()
	errs.AddError(testID, DERParams2("oid", []byte{0x2a, 0x03}, "params", []byte{0x05, 0x00}))

	want := "ERROR: Test diagnostic\n  oid: 2A03\n  params: 0500"
	if got := errs.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestU_CertErrors_Concurrent(t *testing.T) {
	errs := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs.AddError(testID, nil)
		}()
	}
	wg.Wait()
	if errs.Len() != 50 {
		t.Errorf("Len() = %d, want 50", errs.Len())
	}
}

func TestU_DERParams2_Copies(t *testing.T) {
	buf := []byte{0x01, 0x02}
	p := DERParams2("x", buf, "y", buf[:1])
	buf[0] = 0xff

	if got, _ := p.Get("x"); !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Errorf("x = %x, want 0102", got)
	}
	if got, _ := p.Get("y"); !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("y = %x, want 01", got)
	}
	if _, ok := p.Get("z"); ok {
		t.Error("Get(z) should report missing")
	}
}

func TestU_Multi(t *testing.T) {
	a, b := New(), New()
	var seen []ID
	sink := Multi(a, nil, SinkFunc(func(id ID, _ Params) { seen = append(seen, id) }), b)

	sink.AddError(testID, nil)

	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("Len() = %d, %d, want 1, 1", a.Len(), b.Len())
	}
	if diff := cmp.Diff([]ID{testID}, seen); diff != "" {
		t.Errorf("SinkFunc calls mismatch (-want +got):\n%s", diff)
	}
}

func TestU_Node_JSON(t *testing.T) {
	data, err := json.Marshal(Node{ID: testID, Severity: SeverityWarning})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"severity":"WARNING"`) {
		t.Errorf("json = %s, want severity by name", data)
	}
}
