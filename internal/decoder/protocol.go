package decoder

// Protocol is the tagged variant of spec.md §3.
type Protocol int

const (
	ProtoUnknown Protocol = iota
	ProtoStandardLocation
	ProtoNationalLocation
	ProtoUserProtocol
	ProtoEltDt
	ProtoRlsLocation
	ProtoShipSecurity
	ProtoTest
)

func (p Protocol) String() string {
	switch p {
	case ProtoStandardLocation:
		return "StandardLocation"
	case ProtoNationalLocation:
		return "NationalLocation"
	case ProtoUserProtocol:
		return "UserProtocol"
	case ProtoEltDt:
		return "EltDt"
	case ProtoRlsLocation:
		return "RlsLocation"
	case ProtoShipSecurity:
		return "ShipSecurity"
	case ProtoTest:
		return "Test"
	default:
		return "Unknown"
	}
}

// userSubKind names the eight short-frame user protocols of spec.md §6,
// and the long-frame standard-location sub-variants that share
// ProtoStandardLocation but format their identification field
// differently.
type userSubKind string

const (
	subOrbitography   userSubKind = "orbitography"
	subEltAviation    userSubKind = "elt_aviation"
	subEpirbMaritime  userSubKind = "epirb_maritime"
	subSerialUser     userSubKind = "serial_user"
	subNationalUser   userSubKind = "national_user"
	subReserved       userSubKind = "reserved"
	subRadioCS        userSubKind = "radio_cs"
	subTest           userSubKind = "test"
	subStdMMSI        userSubKind = "standard_location_mmsi"
	subStdAddress     userSubKind = "standard_location_24bit_address"
	subStdSerial      userSubKind = "standard_location_serial"
	subStdOperator    userSubKind = "standard_location_operator"
	subNationalLoc    userSubKind = "national_location"
	subUserLocation   userSubKind = "user_location"
	subRLS            userSubKind = "rls_location"
)

var shortUserProtocols = [8]userSubKind{
	subOrbitography, subEltAviation, subEpirbMaritime, subSerialUser,
	subNationalUser, subReserved, subRadioCS, subTest,
}

// Dispatch is the resolved protocol classification of a single frame,
// keyed on (frame_kind, protocol_flag, protocol_code) per spec.md §6.
type Dispatch struct {
	Protocol Protocol
	SubKind  userSubKind
	Code     int
}

// dispatchProtocol implements the §6 dispatch table exactly.
func dispatchProtocol(isLong bool, protocolFlag byte, code int) Dispatch {
	if !isLong {
		if protocolFlag == 1 && code >= 0 && code <= 7 {
			return Dispatch{Protocol: ProtoUserProtocol, SubKind: shortUserProtocols[code], Code: code}
		}
		return Dispatch{Protocol: ProtoUnknown, Code: code}
	}

	// Long frame.
	if protocolFlag == 1 {
		return Dispatch{Protocol: ProtoUserProtocol, SubKind: subUserLocation, Code: code}
	}

	switch code {
	case 2:
		return Dispatch{Protocol: ProtoStandardLocation, SubKind: subStdMMSI, Code: code}
	case 3:
		return Dispatch{Protocol: ProtoStandardLocation, SubKind: subStdAddress, Code: code}
	case 4, 6, 7:
		return Dispatch{Protocol: ProtoStandardLocation, SubKind: subStdSerial, Code: code}
	case 5:
		return Dispatch{Protocol: ProtoStandardLocation, SubKind: subStdOperator, Code: code}
	case 8, 10, 11:
		return Dispatch{Protocol: ProtoNationalLocation, SubKind: subNationalLoc, Code: code}
	case 9:
		return Dispatch{Protocol: ProtoEltDt, Code: code}
	case 12:
		// dec406_v1g.c decodes Ship Security by calling
		// decode_standard_location unmodified (protocol_bits = 0b1100),
		// which takes the "MMSI with spare bits" branch.
		return Dispatch{Protocol: ProtoShipSecurity, SubKind: subStdMMSI, Code: code}
	case 13:
		return Dispatch{Protocol: ProtoRlsLocation, SubKind: subRLS, Code: code}
	case 14, 15:
		return Dispatch{Protocol: ProtoTest, Code: code}
	default:
		return Dispatch{Protocol: ProtoUnknown, Code: code}
	}
}
