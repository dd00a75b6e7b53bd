package models

// Machine is a registry entry mapping an alias to a hardware address.
type Machine struct {
	Name string
	MAC  MACAddress
}
