package ledger

// Capability is an unforgeable permission handle gating privileged
// ledger writes. Instances can only be constructed inside this
// package, possession (not identity) authorizes the write.
type Capability struct {
	kind     string
	objectId string
}

const (
	capabilityAccessRecorder = "access_recorder"
	capabilityOracle         = "oracle"
)

// newCapability returns nil when the object ref is absent or a
// placeholder, which switches the owning operation into the
// simulated path instead of attempting an unsigned transaction.
func newCapability(kind, objectId string) *Capability {
	if objectId == "" || objectId == "0x0" {
		return nil
	}
	return &Capability{kind: kind, objectId: objectId}
}

func (self *Capability) ref() string {
	if self == nil {
		return ""
	}
	return self.objectId
}

func (self *Capability) held() bool {
	return self != nil
}
