package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ssdfair/ssdsim/pkg/models"
)

func TestParseLegacyCSVAssignsDenseIDsInFirstSeenOrder(t *testing.T) {
	data := `timestamp,process_id,type,address,size
0,process2,read,0,4096
1000,process1,write,0,8192
2000,process2,read,0,4096
`
	reqs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	// process2 seen first -> user 0; process1 second -> user 1.
	if reqs[0].UserID != 0 || reqs[2].UserID != 0 {
		t.Fatalf("expected process2 requests to map to user 0, got %+v", reqs)
	}
	if reqs[1].UserID != 1 {
		t.Fatalf("expected process1 to map to user 1, got %+v", reqs[1])
	}
}

func TestParseExtendedCSVHonorsExplicitUserID(t *testing.T) {
	data := "0,proc,5,read,0,4096\n"
	reqs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 || reqs[0].UserID != 5 {
		t.Fatalf("expected user id 5, got %+v", reqs)
	}
}

func TestParseExtendedCSVConflictingUserIDIsFormatError(t *testing.T) {
	data := "0,proc,5,read,0,4096\n1000,proc,6,read,0,4096\n"
	_, err := Parse(strings.NewReader(data))
	if err == nil {
		t.Fatal("expected conflicting user_id to be an error")
	}
	var fe *FormatError
	if !errorsAs(err, &fe) {
		t.Fatalf("expected *FormatError, got %T: %v", err, err)
	}
}

func TestParseSortsByArrivalThenUser(t *testing.T) {
	data := "2000,p1,1,read,0,4096\n1000,p0,0,read,0,4096\n1000,p2,2,read,0,4096\n"
	reqs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	if reqs[0].Arrival != 1000.0/1e6 || reqs[0].UserID != 0 {
		t.Fatalf("expected first request at t=1ms user 0, got %+v", reqs[0])
	}
	if reqs[1].UserID != 2 {
		t.Fatalf("expected second request (tie on arrival) to be user 2, got %+v", reqs[1])
	}
}

func TestParseSkipsHeaderAndComments(t *testing.T) {
	data := "# comment\ntimestamp,process_id,type,address,size\n0,p,read,0,4096\n"
	reqs, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
}

func TestParseBlktraceQueueEvent(t *testing.T) {
	line := "8,0    1        1     0.000000000  1234  Q   R 0 + 8 [bash]\n"
	reqs, err := Parse(strings.NewReader(line))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].SizeBytes != 8*512 {
		t.Fatalf("expected 8 sectors * 512 bytes, got %d", reqs[0].SizeBytes)
	}
	if reqs[0].Op != models.OpRead {
		t.Fatalf("expected read op, got %v", reqs[0].Op)
	}
}

func TestParseBlktraceNonQueueActionIsSkipped(t *testing.T) {
	line := "8,0    1        1     0.000000000  1234  C   R 0 + 8 [bash]\n"
	reqs, err := Parse(strings.NewReader(line))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 0 {
		t.Fatalf("expected no requests for non-queue action, got %d", len(reqs))
	}
}

func TestParseUnknownFormatIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("not,a,valid,trace\n"))
	if err == nil {
		t.Fatal("expected format error")
	}
}

func TestGenerateAndWriteCSVRoundTrips(t *testing.T) {
	reqs := Generate(GenerateConfig{NumUsers: 3, NumRequests: 50, Seed: 1})
	var buf bytes.Buffer
	if err := WriteCSV(&buf, reqs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("unexpected error parsing generated trace: %v", err)
	}
	if len(parsed) != len(reqs) {
		t.Fatalf("expected %d requests round-tripped, got %d", len(reqs), len(parsed))
	}
}

func TestGenerateArrivalsAreSortedAndNonNegative(t *testing.T) {
	reqs := Generate(GenerateConfig{NumUsers: 2, NumRequests: 20, Seed: 42})
	for i, r := range reqs {
		if r.Arrival < 0 {
			t.Fatalf("request %d has negative arrival %f", i, r.Arrival)
		}
		if i > 0 && r.Arrival < reqs[i-1].Arrival {
			t.Fatalf("arrivals not sorted at index %d", i)
		}
	}
}

// errorsAs is a tiny local shim so this file doesn't need to import errors
// just for one call site.
func errorsAs(err error, target **FormatError) bool {
	fe, ok := err.(*FormatError)
	if !ok {
		return false
	}
	*target = fe
	return true
}
