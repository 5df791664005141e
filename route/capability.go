package route

// Capability is the prefetch capability declared on a segment.
type Capability int

const (
	// CapabilityUnset means the segment declares nothing; the classifier
	// decides based on validation outcome alone.
	CapabilityUnset Capability = iota

	// CapabilityStatic asserts the segment is fully pre-computable.
	CapabilityStatic

	// CapabilityRuntime declares the segment fetchable ahead of navigation,
	// optionally for enumerated parameter samples.
	CapabilityRuntime

	// CapabilityBlocking declares the segment must be fetched synchronously
	// at navigation time.
	CapabilityBlocking
)

func (c Capability) String() string {
	switch c {
	case CapabilityStatic:
		return "static"
	case CapabilityRuntime:
		return "runtime"
	case CapabilityBlocking:
		return "blocking"
	default:
		return "unset"
	}
}
