// Package device holds device descriptors and the device registry.
//
// A Descriptor is one entry of the devices file: key, name, type tag,
// addressing block and an opaque properties block decoded by the adapter
// for that type. The Registry maps keys to live devices; it is append-only
// during bring-up and read-only afterwards, and is passed explicitly to the
// binding resolver and activation coordinator.
//
// # Addressing
//
// Exactly one of cresnet_id, ip_id, rf_id or slot identifies a device on
// its bus. parent_key names a bridging parent already in the registry; an
// empty key or "processor" means the root controller. branch_index selects
// the parent's branch and defaults to 1 when omitted.
//
// # Usage
//
//	descs, err := device.LoadDescriptors(cfg.DevicesFile)
//	if err != nil {
//	    return err
//	}
//	registry := device.NewRegistry()
//	registry.SetLogger(logger)
package device
