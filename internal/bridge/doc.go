// Package bridge links device feedbacks and actions to numbered joins on an
// external signal bridge.
//
// A Transport carries join values. Loopback keeps them in process;
// MQTTTransport publishes them as retained topics and accepts writes on
// /set topics. Both raise an online signal of their own, independent of
// any hardware endpoint.
//
// Linker.Link resolves a device's effective join map, then:
//   - pushes bool feedbacks to digital joins, int to analog and string to serial
//   - routes inbound joins to the device's named actions
//   - skips, with a warning, any link whose kinds disagree
//   - republishes every link once per bridge Offline→Online transition
//   - republishes a device's links when its endpoint comes online
//
// Analog joins are 16-bit; int feedbacks are clamped to 0..65535.
package bridge
