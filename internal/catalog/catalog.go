// Package catalog maps well-known TCP ports to conventional service names.
package catalog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"netsage/internal/ports"
)

// Unknown is the label presented for ports missing from the catalog
const Unknown = "unknown"

// baseServices follows the IANA registrations for the most commonly scanned ports.
// The service actually listening on a port may differ.
var baseServices = map[int]string{
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	80:   "HTTP",
	110:  "POP3",
	111:  "RPCBind",
	135:  "MSRPC",
	139:  "NetBIOS",
	143:  "IMAP",
	443:  "HTTPS",
	445:  "SMB",
	993:  "IMAPS",
	995:  "POP3S",
	1723: "PPTP",
	3306: "MySQL",
	3389: "RDP",
	5432: "PostgreSQL",
	5900: "VNC",
	6379: "Redis",
	8080: "HTTP-Alt",
	8443: "HTTPS-Alt",
}

// Catalog is an immutable port to label table
type Catalog struct {
	services map[int]string
}

// Default returns a catalog over the built-in table
func Default() *Catalog {
	return New(nil)
}

// New returns a catalog over the built-in table with overrides applied on top
func New(overrides map[int]string) *Catalog {
	services := make(map[int]string, len(baseServices)+len(overrides))
	for port, name := range baseServices {
		services[port] = name
	}
	for port, name := range overrides {
		services[port] = name
	}
	return &Catalog{services: services}
}

// Label returns the service label for port, if known
func (c *Catalog) Label(port int) (string, bool) {
	name, ok := c.services[port]
	return name, ok
}

// Len returns the number of entries in the catalog
func (c *Catalog) Len() int {
	return len(c.services)
}

// LoadOverrides reads "port=label" lines from path.
// Blank lines and lines starting with '#' are ignored.
func LoadOverrides(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open services file: %w", err)
	}
	defer f.Close()

	overrides := make(map[int]string)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected port=label", path, line)
		}
		port, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || !ports.Valid(port) {
			return nil, fmt.Errorf("%s:%d: invalid port %q", path, line, strings.TrimSpace(key))
		}
		label := strings.TrimSpace(value)
		if label == "" {
			return nil, fmt.Errorf("%s:%d: empty label for port %d", path, line, port)
		}
		overrides[port] = label
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read services file: %w", err)
	}

	return overrides, nil
}
