package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/pkg/socrata"
	"github.com/sells-group/owner-resolver/pkg/socrata/mocks"
)

var testBBL = model.BBL{Borough: model.Brooklyn, Block: 123, Lot: 45}

func TestFilters(t *testing.T) {
	assert.Equal(t, "boroid='3' AND block='123' AND lot='45'", hpdFilter(testBBL))
	assert.Equal(t, "borough='BROOKLYN' AND block='00123' AND lot='00045'", dobFilter(testBBL))
	assert.Equal(t, "boro='3' AND block='00123' AND lot='0045'", ecbFilter(testBBL))
	assert.Equal(t, "bbl='3001230045'", columnFilter("bbl")(testBBL))
	assert.Equal(t, "borocode=3 AND block=123 AND lot=45", plutoFilter(testBBL))
}

func TestNewSocrataRegistry_Defaults(t *testing.T) {
	reg := NewSocrataRegistry(mocks.NewMockClient(t), Options{})
	names := reg.List()
	assert.Len(t, names, 9)
	assert.NotContains(t, names, RentStabilized)
	assert.Contains(t, names, HPDRegistrations)
	assert.Equal(t, model.SourceTaxRoll, reg.Get(TaxRoll).Source())
}

func TestNewSocrataRegistry_Overrides(t *testing.T) {
	reg := NewSocrataRegistry(mocks.NewMockClient(t), Options{
		Datasets: map[string]string{RentStabilized: "abcd-1234"},
		Disabled: []string{DOBJobs, ECBViolations},
	})
	names := reg.List()
	assert.Len(t, names, 8)
	assert.Contains(t, names, RentStabilized)
	assert.Nil(t, reg.Get(DOBJobs))
}

func TestDatasetFeed_Fetch(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Query", mock.Anything, "wvxf-dwi5", socrata.Params{Where: hpdFilter(testBBL)}).
		Return([]socrata.Record{{"class": "C"}}, nil).Once()

	reg := NewSocrataRegistry(client, Options{})
	recs, err := reg.Get(HPDViolations).Fetch(context.Background(), testBBL)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestDatasetFeed_FetchError(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Query", mock.Anything, "59kj-x8nc", mock.Anything).
		Return(nil, errors.New("boom")).Once()

	reg := NewSocrataRegistry(client, Options{})
	recs, err := reg.Get(HPDLitigation).Fetch(context.Background(), testBBL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "feed: hpd_litigation")
	assert.Nil(t, recs)
}

func TestRegistrationFeed_TwoStep(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Query", mock.Anything, "tesw-yqqr", mock.MatchedBy(func(p socrata.Params) bool {
		return p.Where == hpdFilter(testBBL)
	})).Return([]socrata.Record{
		{"registrationid": "900"},
		{"registrationid": "901"},
		{"registrationid": "900"},
	}, nil).Once()
	client.On("Query", mock.Anything, "feu5-w2e2", socrata.Params{Where: "registrationid in ('900','901')"}).
		Return([]socrata.Record{{"type": "IndividualOwner", "lastname": "SMITH"}}, nil).Once()

	reg := NewSocrataRegistry(client, Options{})
	recs, err := reg.Get(HPDRegistrations).Fetch(context.Background(), testBBL)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "SMITH", recs[0].String("lastname"))
}

func TestRegistrationFeed_NoRegistration(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Query", mock.Anything, "tesw-yqqr", mock.Anything).Return([]socrata.Record{}, nil).Once()

	f := &registrationFeed{buildings: "tesw-yqqr", contacts: "feu5-w2e2", client: client}
	recs, err := f.Fetch(context.Background(), testBBL)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRegistry_All(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&datasetFeed{name: "b"})
	reg.Register(&datasetFeed{name: "a"})
	reg.Register(&datasetFeed{name: "a", dataset: "replaced"})

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name())
	assert.Equal(t, "replaced", all[0].(*datasetFeed).dataset)
	assert.Equal(t, []string{"a", "b"}, reg.List())
}
