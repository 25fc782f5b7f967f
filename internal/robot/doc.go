// Package robot holds the domain values vectorlink hands to its callers and
// the Mapper that derives them from gateway wire records.
//
// Domain values are plain structs with no behaviour and no link back to the
// response that produced them. Mapping never fails: a missing nested record
// yields the zero value of the corresponding field.
package robot
