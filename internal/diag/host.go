package diag

import (
	"context"
	"net"
	"os"
	"runtime"

	"netsage/internal/models"

	"go.uber.org/zap"
)

// DefaultRouteProbe is dialed over UDP to learn the outbound address; no packet is sent
const DefaultRouteProbe = "8.8.8.8:80"

// HostInspector describes the local machine: hostname, outbound address and adapters
type HostInspector struct {
	routeProbe string
	interfaces func() ([]net.Interface, error)
	logger     *zap.Logger
}

// NewHostInspector creates an inspector. An empty routeProbe uses DefaultRouteProbe.
func NewHostInspector(routeProbe string, logger *zap.Logger) *HostInspector {
	if routeProbe == "" {
		routeProbe = DefaultRouteProbe
	}
	return &HostInspector{
		routeProbe: routeProbe,
		interfaces: net.Interfaces,
		logger:     logger,
	}
}

// Inspect collects host information. Failures are recorded, never returned.
func (h *HostInspector) Inspect(ctx context.Context) models.HostInfo {
	info := models.HostInfo{
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		LocalIP:  h.LocalIP(ctx),
	}

	if name, err := os.Hostname(); err == nil {
		info.Hostname = name
	}

	adapters, err := h.Adapters()
	if err != nil {
		info.Error = err.Error()
		h.logger.Debug("Failed to list network interfaces", zap.Error(err))
	}
	info.Adapters = adapters

	return info
}

// LocalIP returns the source address the kernel picks for outbound traffic,
// or "unknown" when there is no route.
func (h *HostInspector) LocalIP(ctx context.Context) string {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", h.routeProbe)
	if err != nil {
		h.logger.Debug("No outbound route", zap.String("route_probe", h.routeProbe), zap.Error(err))
		return "unknown"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "unknown"
}

// Adapters lists every network interface with its addressing
func (h *HostInspector) Adapters() ([]models.Adapter, error) {
	ifaces, err := h.interfaces()
	if err != nil {
		return nil, err
	}

	adapters := make([]models.Adapter, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			h.logger.Debug("Failed to read interface addresses",
				zap.String("interface", iface.Name),
				zap.Error(err),
			)
		}
		adapters = append(adapters, adapterFrom(iface, addrs))
	}
	return adapters, nil
}

// adapterFrom keeps the first IPv4 address with its netmask and every IPv6 address
func adapterFrom(iface net.Interface, addrs []net.Addr) models.Adapter {
	adapter := models.Adapter{
		Name: iface.Name,
		Up:   iface.Flags&net.FlagUp != 0,
		MTU:  iface.MTU,
	}
	if len(iface.HardwareAddr) > 0 {
		adapter.MAC = iface.HardwareAddr.String()
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			if adapter.IPv4 == "" {
				adapter.IPv4 = v4.String()
				mask := ipNet.Mask
				if len(mask) == net.IPv6len {
					mask = mask[12:]
				}
				adapter.Netmask = net.IP(mask).String()
			}
			continue
		}
		adapter.IPv6 = append(adapter.IPv6, ipNet.IP.String())
	}
	return adapter
}
