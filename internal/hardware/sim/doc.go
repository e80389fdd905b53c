// Package sim is an in-process stand-in for the controller SDK.
//
// A Controller owns root hosts for cresnet and IP, plus embedded devices
// (internal RF gateway, internal card cage) when the matching features are
// enabled. Endpoints are built from the point tables in the models package,
// enforce id ranges and uniqueness at Register, echo writes as events while
// online, and expose SetOnline, Drive and Emit so tests and the
// development binary can play the hardware side.
package sim
