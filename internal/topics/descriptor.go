package topics

import "slices"

// QoS carries the quality-of-service attributes announced with a topic.
// The registry passes them through without interpreting them.
type QoS struct {
	Reliable       bool     `json:"reliable" yaml:"reliable"`
	TransientLocal bool     `json:"transient_local" yaml:"transient_local"`
	Keyed          bool     `json:"keyed" yaml:"keyed"`
	Partitions     []string `json:"partitions,omitempty" yaml:"partitions,omitempty"`
}

// Descriptor identifies a topic on the network.
type Descriptor struct {
	// Name is the unique key of the topic.
	Name string `json:"name"`
	// TypeName identifies the wire type of the samples.
	TypeName string `json:"type_name"`
	// QoS is opaque to the registry.
	QoS QoS `json:"qos"`
}

// NewDescriptor creates a descriptor, copying any partitions so that the caller
// cannot mutate it afterwards.
func NewDescriptor(name, typeName string, qos QoS) Descriptor {
	d := Descriptor{Name: name, TypeName: typeName, QoS: qos}
	return d.clone()
}

// Equal reports whether both descriptors carry the same name, type and QoS.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Name == other.Name &&
		d.TypeName == other.TypeName &&
		d.QoS.Reliable == other.QoS.Reliable &&
		d.QoS.TransientLocal == other.QoS.TransientLocal &&
		d.QoS.Keyed == other.QoS.Keyed &&
		slices.Equal(d.QoS.Partitions, other.QoS.Partitions)
}

// String returns the topic name for easy debugging
func (d Descriptor) String() string {
	return d.Name
}

func (d Descriptor) clone() Descriptor {
	if d.QoS.Partitions != nil {
		d.QoS.Partitions = slices.Clone(d.QoS.Partitions)
	}
	return d
}
