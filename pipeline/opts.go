package pipeline

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/fastqfilter/encoding/fastq"
	"github.com/grailbio/fastqfilter/filter"
	"github.com/grailbio/fastqfilter/qual"
)

// Opts configures Run.  Nil thresholds contribute no filter.
type Opts struct {
	// MinLength rejects reads shorter than this many bases.
	MinLength *int
	// MaxLength rejects reads longer than this many bases.
	MaxLength *int
	// AverageErrorRate rejects reads whose mean per-base error probability
	// exceeds this rate. It is the same filter as MeanQuality, expressed as a
	// probability: 0.001 is equivalent to MeanQuality 30.
	AverageErrorRate *float64
	// MeanQuality rejects reads whose error-probability-averaged quality is
	// below this phred score.
	MeanQuality *float64
	// MedianQuality rejects reads whose median phred score is below this.
	MedianQuality *float64
	// PhredOffset is the ASCII offset of quality strings.
	PhredOffset int
	// CompressionLevel applies to .gz and .bgz outputs.
	CompressionLevel int
}

// DefaultOpts are the default values of Opts.
var DefaultOpts = Opts{
	PhredOffset:      qual.DefaultOffset,
	CompressionLevel: fastq.DefaultCompressionLevel,
}

// Filters validates o and returns the chain it describes.
func (o Opts) Filters() (filter.Chain, error) {
	if o.PhredOffset < 0 || o.PhredOffset > 255 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("phred offset %d outside [0, 255]", o.PhredOffset))
	}
	if o.CompressionLevel < 0 || o.CompressionLevel > 9 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("compression level %d outside [0, 9]", o.CompressionLevel))
	}
	offset := byte(o.PhredOffset)
	var filters []filter.Filter
	if o.MinLength != nil {
		if *o.MinLength < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("negative minimum length %d", *o.MinLength))
		}
		filters = append(filters, filter.NewMinLength(*o.MinLength))
	}
	if o.MaxLength != nil {
		if *o.MaxLength < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("negative maximum length %d", *o.MaxLength))
		}
		if o.MinLength != nil && *o.MinLength > *o.MaxLength {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("minimum length %d exceeds maximum length %d", *o.MinLength, *o.MaxLength))
		}
		filters = append(filters, filter.NewMaxLength(*o.MaxLength))
	}
	if o.AverageErrorRate != nil {
		f, err := filter.NewAverageErrorRate(*o.AverageErrorRate)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f.WithOffset(offset))
	}
	if o.MeanQuality != nil {
		filters = append(filters, filter.NewMeanQuality(*o.MeanQuality).WithOffset(offset))
	}
	if o.MedianQuality != nil {
		filters = append(filters, filter.NewMedianQuality(*o.MedianQuality).WithOffset(offset))
	}
	return filter.NewChain(filters...), nil
}
