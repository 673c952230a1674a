// Package nmea decodes NMEA-0183 GNSS sentences from a raw character
// stream into position, velocity, time, and satellite-tracking state.
//
// The parser is fed one byte at a time (suitable for a UART read loop)
// and validates sentence framing and checksums itself:
// - RMC/GGA/VTG/GSA/GSV/GLL/ZDA/GNS across GPS/GLONASS/Galileo/BeiDou/
//   NavIC/QZSS talkers
// - Fix state is accumulated in place and read back via accessors
package nmea
