package analysis

import (
	"net"
	"strconv"
)

var commonPorts = map[int]string{
	53:    "DNS",
	80:    "HTTP",
	443:   "HTTPS",
	3074:  "Xbox Live",
	7777:  "Game Server",
	27015: "Source Engine",
	49152: "Ephemeral",
	51820: "WireGuard",
}

// GetServiceName returns the common name for a port, or the port number as a string.
func GetServiceName(port int) string {
	if name, ok := commonPorts[port]; ok {
		return name
	}
	return strconv.Itoa(port)
}

// SplitEndpoint splits an "address:port" string. Port is 0 when missing or
// malformed.
func SplitEndpoint(endpoint string) (string, int) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

func hostOf(endpoint string) string {
	host, _ := SplitEndpoint(endpoint)
	return host
}
