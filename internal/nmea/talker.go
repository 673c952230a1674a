package nmea

// messageKind enumerates the supported sentence types. Keeping this a
// closed set lets every dispatch site switch exhaustively.
type messageKind int

const (
	msgRMC messageKind = iota // recommended minimum position/velocity/time
	msgGGA                    // fix data
	msgVTG                    // track and ground speed
	msgGSA                    // DOP and active satellites
	msgGSV                    // satellites in view
	msgGLL                    // geographic lat/lon
	msgZDA                    // time and date
	msgGNS                    // multi-constellation fix data
)

func messageKindOf(code string) (messageKind, bool) {
	switch code {
	case "RMC":
		return msgRMC, true
	case "GGA":
		return msgGGA, true
	case "VTG":
		return msgVTG, true
	case "GSA":
		return msgGSA, true
	case "GSV":
		return msgGSV, true
	case "GLL":
		return msgGLL, true
	case "ZDA":
		return msgZDA, true
	case "GNS":
		return msgGNS, true
	}
	return 0, false
}

// normalizeTalker maps vendor talker codes onto their standard GNSS
// talker: BeiDou's legacy BD, and the two QZSS vendor codes.
func normalizeTalker(talker string) string {
	switch talker {
	case "BD":
		return "GB"
	case "PQ", "QZ":
		return "GQ"
	}
	return talker
}

// recognizedTalker reports whether talker is one of the GNSS talkers the
// decoders accept.
func recognizedTalker(talker string) bool {
	switch talker {
	case "GP", // Navstar GPS
		"GL", // GLONASS
		"GA", // Galileo
		"GB", // BeiDou
		"GI", // NavIC/IRNSS
		"GQ", // QZSS
		"GN": // multi-GNSS
		return true
	}
	return false
}

// systemIDTalker maps the NMEA 4.x system ID carried in GSA sentences to
// its talker. Unknown or malformed IDs fall back to GPS.
func systemIDTalker(id int) string {
	switch id {
	case 0x2:
		return "GL"
	case 0x3:
		return "GA"
	case 0x4:
		return "GB"
	case 0x5:
		return "GQ"
	case 0x6:
		return "GI"
	default:
		return "GP"
	}
}
