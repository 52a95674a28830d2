package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/normalize"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// DefaultDatasets are the NYC Open Data dataset IDs per feed. The
// rent-stabilized history has no canonical city dataset and is disabled
// unless configured.
var DefaultDatasets = map[string]string{
	HPDRegistrations: "tesw-yqqr",
	DOBPermits:       "ipu4-2q9a",
	DOBJobs:          "ic3t-wcy2",
	HPDViolations:    "wvxf-dwi5",
	HPDLitigation:    "59kj-x8nc",
	ECBViolations:    "6bgk-3dad",
	HPDComplaints:    "ygpa-z7cr",
	SpeculationWatch: "adax-9x2w",
	TaxRoll:          "64uk-42ks",
	RentStabilized:   "",
}

// DefaultContactsDataset holds HPD registration contacts.
const DefaultContactsDataset = "feu5-w2e2"

// filter renders the SoQL $where clause selecting one lot.
type filter func(bbl model.BBL) string

// hpdFilter matches HPD's unpadded boroid/block/lot columns.
func hpdFilter(bbl model.BBL) string {
	return fmt.Sprintf("boroid=%s AND block=%s AND lot=%s",
		socrata.Quote(fmt.Sprint(int(bbl.Borough))), socrata.Quote(fmt.Sprint(bbl.Block)), socrata.Quote(fmt.Sprint(bbl.Lot)))
}

// dobFilter matches DOB's borough name and zero-padded block/lot.
func dobFilter(bbl model.BBL) string {
	return fmt.Sprintf("borough=%s AND block=%s AND lot=%s",
		socrata.Quote(bbl.Borough.Name()), socrata.Quote(fmt.Sprintf("%05d", bbl.Block)), socrata.Quote(fmt.Sprintf("%05d", bbl.Lot)))
}

// ecbFilter matches the ECB boro code and zero-padded block/lot.
func ecbFilter(bbl model.BBL) string {
	return fmt.Sprintf("boro=%s AND block=%s AND lot=%s",
		socrata.Quote(fmt.Sprint(int(bbl.Borough))), socrata.Quote(fmt.Sprintf("%05d", bbl.Block)), socrata.Quote(fmt.Sprintf("%04d", bbl.Lot)))
}

// columnFilter matches a single ten-digit BBL column.
func columnFilter(column string) filter {
	return func(bbl model.BBL) string {
		return column + "=" + socrata.Quote(bbl.String())
	}
}

// plutoFilter matches PLUTO's borocode/block/lot numeric columns.
func plutoFilter(bbl model.BBL) string {
	return fmt.Sprintf("borocode=%d AND block=%d AND lot=%d", int(bbl.Borough), bbl.Block, bbl.Lot)
}

// datasetFeed is a single-query feed.
type datasetFeed struct {
	name    string
	source  model.Source
	dataset string
	where   filter
	order   string
	client  socrata.Client
}

func (f *datasetFeed) Name() string         { return f.name }
func (f *datasetFeed) Source() model.Source { return f.source }

func (f *datasetFeed) Fetch(ctx context.Context, bbl model.BBL) ([]socrata.Record, error) {
	recs, err := f.client.Query(ctx, f.dataset, socrata.Params{Where: f.where(bbl), Order: f.order})
	if err != nil {
		return nil, eris.Wrapf(err, "feed: %s", f.name)
	}
	return recs, nil
}

// registrationFeed resolves a lot to its HPD registrations and returns the
// registration contacts.
type registrationFeed struct {
	buildings string
	contacts  string
	client    socrata.Client
}

func (f *registrationFeed) Name() string         { return HPDRegistrations }
func (f *registrationFeed) Source() model.Source { return model.SourceHPDRegistration }

func (f *registrationFeed) Fetch(ctx context.Context, bbl model.BBL) ([]socrata.Record, error) {
	regs, err := f.client.Query(ctx, f.buildings, socrata.Params{Where: hpdFilter(bbl), Order: "lastregistrationdate DESC"})
	if err != nil {
		return nil, eris.Wrap(err, "feed: hpd registrations")
	}

	ids := normalize.RegistrationIDs(regs)
	if len(ids) == 0 {
		return nil, nil
	}
	for i, id := range ids {
		ids[i] = socrata.Quote(id)
	}

	where := "registrationid in (" + strings.Join(ids, ",") + ")"
	contacts, err := f.client.Query(ctx, f.contacts, socrata.Params{Where: where})
	if err != nil {
		return nil, eris.Wrap(err, "feed: hpd registration contacts")
	}
	return contacts, nil
}

// Options overrides dataset IDs. Empty values keep the default; a feed
// whose resulting dataset is empty is not registered.
type Options struct {
	Datasets        map[string]string
	ContactsDataset string
	Disabled        []string
}

// NewSocrataRegistry registers every city feed backed by client.
func NewSocrataRegistry(client socrata.Client, opts Options) *Registry {
	dataset := func(name string) string {
		if v := opts.Datasets[name]; v != "" {
			return v
		}
		return DefaultDatasets[name]
	}
	contacts := opts.ContactsDataset
	if contacts == "" {
		contacts = DefaultContactsDataset
	}

	all := []Feed{
		&registrationFeed{buildings: dataset(HPDRegistrations), contacts: contacts, client: client},
		&datasetFeed{name: DOBPermits, source: model.SourceDOBPermit, dataset: dataset(DOBPermits), where: dobFilter, order: "issuance_date DESC", client: client},
		&datasetFeed{name: DOBJobs, source: model.SourceDOBJob, dataset: dataset(DOBJobs), where: dobFilter, client: client},
		&datasetFeed{name: HPDViolations, source: model.SourceHPDViolation, dataset: dataset(HPDViolations), where: hpdFilter, client: client},
		&datasetFeed{name: HPDLitigation, source: model.SourceHPDLitigation, dataset: dataset(HPDLitigation), where: hpdFilter, client: client},
		&datasetFeed{name: ECBViolations, source: model.SourceECBViolation, dataset: dataset(ECBViolations), where: ecbFilter, client: client},
		&datasetFeed{name: HPDComplaints, source: model.SourceHPDComplaint, dataset: dataset(HPDComplaints), where: columnFilter("bbl"), client: client},
		&datasetFeed{name: SpeculationWatch, source: model.SourceSpeculation, dataset: dataset(SpeculationWatch), where: columnFilter("bbl"), client: client},
		&datasetFeed{name: TaxRoll, source: model.SourceTaxRoll, dataset: dataset(TaxRoll), where: plutoFilter, client: client},
		&datasetFeed{name: RentStabilized, source: model.SourceRentStabilized, dataset: dataset(RentStabilized), where: columnFilter("ucbbl"), client: client},
	}

	disabled := make(map[string]bool, len(opts.Disabled))
	for _, d := range opts.Disabled {
		disabled[d] = true
	}

	reg := NewRegistry()
	for _, f := range all {
		if disabled[f.Name()] || datasetOf(f) == "" {
			continue
		}
		reg.Register(f)
	}
	return reg
}

func datasetOf(f Feed) string {
	switch t := f.(type) {
	case *datasetFeed:
		return t.dataset
	case *registrationFeed:
		return t.buildings
	}
	return ""
}
