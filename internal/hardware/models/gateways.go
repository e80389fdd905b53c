package models

import "github.com/nerrad567/gray-logic-io/internal/hardware"

// Bus hubs, card cages and RF gateways. These carry no points of their own;
// they exist to provide branches.
const (
	CenCn2           = "cencn2"
	CenCi31          = "cenci31"
	CenCi33          = "cenci33"
	InternalCardCage = "internalcardcage"

	CenRfgwEx    = "cenrfgwex"
	CenErfgwPoe  = "cenerfgwpoe"
	CenGwExEr    = "cengwexer"
	InternalRfgw = "internalrfgw"
)

func init() {
	// A cage exposes one card bus; the card's slot number is its id on it.
	cards := map[hardware.Transport]int{hardware.TransportCardSlot: 1}

	register(Spec{
		Model:      CenCn2,
		Transports: []hardware.Transport{hardware.TransportIP},
		Branches:   map[hardware.Transport]int{hardware.TransportCresnet: 2},
	})
	register(Spec{
		Model:      CenCi31,
		Transports: []hardware.Transport{hardware.TransportIP},
		Branches:   cards,
		Slots:      1,
	})
	register(Spec{
		Model:      CenCi33,
		Transports: []hardware.Transport{hardware.TransportIP},
		Branches:   cards,
		Slots:      3,
	})
	register(Spec{
		Model:    InternalCardCage,
		Embedded: true,
		Branches: cards,
		Slots:    8,
	})

	rf := map[hardware.Transport]int{hardware.TransportRF: 1}
	register(Spec{
		Model:      CenRfgwEx,
		Transports: []hardware.Transport{hardware.TransportIP, hardware.TransportCresnet},
		Branches:   rf,
	})
	register(Spec{
		Model:      CenErfgwPoe,
		Transports: []hardware.Transport{hardware.TransportIP, hardware.TransportCresnet},
		Branches:   rf,
	})
	register(Spec{
		Model:      CenGwExEr,
		Transports: []hardware.Transport{hardware.TransportIP, hardware.TransportCresnet},
		Branches:   rf,
	})
	register(Spec{
		Model:    InternalRfgw,
		Embedded: true,
		Branches: rf,
	})
}
