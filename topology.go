package caparoc

import "context"

// Topology is the live set of connected modules and their channel counts.
// Modules are hot-pluggable, so a Topology is only a snapshot: validation
// never reuses one, it re-reads the counts from the device every time.
type Topology struct {
	ConnectedModules int
	// ChannelCounts holds the channel count of module m at index m-1.
	ChannelCounts []int
}

// ValidModule reports whether the 1-based module number exists in this
// snapshot.
func (t Topology) ValidModule(module int) bool {
	return module >= 1 && module <= t.ConnectedModules
}

// ValidChannel reports whether the 1-based (module, channel) pair exists in
// this snapshot.
func (t Topology) ValidChannel(module, channel int) bool {
	if !t.ValidModule(module) || module > len(t.ChannelCounts) {
		return false
	}
	return channel >= 1 && channel <= t.ChannelCounts[module-1]
}

func connectedModules(conn Client) (int, error) {
	n, err := readU16(conn, regConnectedModules)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func channelCount(conn Client, module int) (int, error) {
	if module < 1 || module > maxModules {
		return 0, &ValidationError{Module: module, Max: maxModules}
	}
	n, err := readU16(conn, regChannelCountBase+uint16(module-1))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// validateModule checks the 1-based module number against the freshly read
// connected-module count.
func validateModule(conn Client, module int) error {
	count, err := connectedModules(conn)
	if err != nil {
		return &ValidationError{Module: module, Err: err}
	}
	if module < 1 || module > count {
		return &ValidationError{Module: module, Max: count}
	}
	return nil
}

// validateChannel checks the 1-based channel number against the module's
// freshly read channel count. The module number must already be validated.
func validateChannel(conn Client, module, channel int) error {
	count, err := channelCount(conn, module)
	if err != nil {
		return &ValidationError{Module: module, Channel: channel, Err: err}
	}
	if channel < 1 || channel > count {
		return &ValidationError{Module: module, Channel: channel, Max: count}
	}
	return nil
}

// ConnectedModules reads the number of currently connected modules.
func (c *Caparoc) ConnectedModules(ctx context.Context) (int, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return 0, transportErr("conn", regConnectedModules, err)
	}
	defer c.connPool.Put(conn)
	return connectedModules(conn)
}

// ChannelCount reads the channel count of the given module.
func (c *Caparoc) ChannelCount(ctx context.Context, module int) (int, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return 0, transportErr("conn", regChannelCountBase, err)
	}
	defer c.connPool.Put(conn)
	if err := validateModule(conn, module); err != nil {
		return 0, err
	}
	return channelCount(conn, module)
}

// Topology reads a snapshot of the connected modules and their channel
// counts.
func (c *Caparoc) Topology(ctx context.Context) (Topology, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return Topology{}, transportErr("conn", regConnectedModules, err)
	}
	defer c.connPool.Put(conn)

	count, err := connectedModules(conn)
	if err != nil {
		return Topology{}, err
	}
	topo := Topology{
		ConnectedModules: count,
		ChannelCounts:    make([]int, 0, count),
	}
	for m := 1; m <= count; m++ {
		channels, err := channelCount(conn, m)
		if err != nil {
			return Topology{}, err
		}
		topo.ChannelCounts = append(topo.ChannelCounts, channels)
	}
	return topo, nil
}
