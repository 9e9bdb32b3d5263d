package decoder

import "fmt"

// identification formats the free-form identification field of spec.md
// §3 from the dispatch outcome and the identification bits carved out of
// the frame. Bit widths and formats are grounded on dec406_v1g.c's
// decode_standard_location (MMSI/aircraft-address/serial/operator),
// decode_national_location (national ID), decode_rls_location and
// decode_user_identification/decode_serial_user_protocol (Baudot call
// signs). idBits spans frame.Bits[40:64] for Standard Location and most
// other long-frame protocols, frame.Bits[40:58] for National Location,
// frame.Bits[40:66] for ELT-DT and RLS, and frame.Bits[40:85] for short
// frames.
func identification(d Dispatch, idBits []byte) string {
	switch d.SubKind {
	case subStdAddress:
		return fmt.Sprintf("Aircraft Address: %06X", bitsToUint(idBits))
	case subStdMMSI:
		// dec406_v1g.c: id_data is the full 24-bit identification field;
		// the MMSI itself is the 20 bits above a 4-bit trailer
		// ((id_data >> 4) & 0xFFFFF). Protocol code 2 carries a 4-bit
		// beacon number in that trailer; code 12 (Ship Security, reusing
		// this same decode path) leaves it spare.
		raw := bitsToUint(idBits)
		mmsi := (raw >> 4) & 0xFFFFF
		if d.Code == 2 {
			return fmt.Sprintf("MMSI: %09d, Beacon: %d", mmsi, raw&0xF)
		}
		return fmt.Sprintf("MMSI: %09d", mmsi)
	case subStdSerial:
		tac := bitsToUint(idBits[0:10])
		serial := bitsToUint(idBits[10:24])
		return fmt.Sprintf("Type Approval: %d, Serial: %d", tac, serial)
	case subStdOperator:
		designator := bitsToUint(idBits[0:15])
		serial := bitsToUint(idBits[15:24])
		return fmt.Sprintf("Operator: %05X, Serial: %d", designator, serial)
	case subNationalLoc:
		return fmt.Sprintf("%s National ID: %d", nationalBeaconType(d.Code), bitsToUint(idBits))
	case subUserLocation:
		return fmt.Sprintf("User Location ID: %d", bitsToUint(idBits))
	case subRLS:
		return rlsIdentification(idBits)
	}

	switch d.Protocol {
	case ProtoEltDt:
		return eltDtIdentification(idBits)
	case ProtoTest:
		return fmt.Sprintf("Test ID: %d", bitsToUint(idBits))
	case ProtoUserProtocol:
		return fmt.Sprintf("Call Sign: %s", baudotDecode(idBits))
	default:
		return fmt.Sprintf("ID: %d", bitsToUint(idBits))
	}
}

// nationalBeaconType labels a National Location protocol code the way
// dec406_v1g.c's decode_national_location does.
func nationalBeaconType(code int) string {
	switch code {
	case 8:
		return "ELT"
	case 10:
		return "EPIRB"
	case 11:
		return "PLB"
	default:
		return "Unknown"
	}
}

// eltDtIdentification decodes an ELT-DT identification field (idBits =
// frame.Bits[40:66], dec406_v1g.c's decode_1g_frame + decode_aircraft_address):
// a 2-bit ID-type code followed, when that code is 0, by a 24-bit
// aircraft address. Any other ID-type code carries no decodable
// identification in the original.
func eltDtIdentification(idBits []byte) string {
	if bitsToUint(idBits[0:2]) != 0 {
		return "ID-NOT-AVAIL"
	}
	return fmt.Sprintf("Aircraft Address: %06X", bitsToUint(idBits[2:26]))
}

// rlsIdentification decodes an RLS Location identification field
// (idBits = frame.Bits[40:66], dec406_v1g.c's decode_rls_location): a
// 2-bit beacon type, then either an MMSI (when the next 4 bits read all
// ones) or a type-approval/serial pair.
func rlsIdentification(idBits []byte) string {
	beaconType := int(bitsToUint(idBits[0:2]))
	mmsiFlag := bitsToUint(idBits[2:6])

	if mmsiFlag == 0xF {
		mmsi := bitsToUint(idBits[6:26])
		return fmt.Sprintf("RLS MMSI: %06d", mmsi)
	}

	tac := bitsToUint(idBits[2:12])
	serial := bitsToUint(idBits[12:26])
	typeStr := [4]string{"ELT", "EPIRB", "PLB", "TEST"}[beaconType&0x3]
	offset := uint64(3000)
	switch beaconType {
	case 0:
		offset = 2000
	case 1:
		offset = 1000
	}
	return fmt.Sprintf("RLS %s TAC:%d Serial:%d", typeStr, tac+offset, serial)
}
