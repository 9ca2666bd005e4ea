package bus

// I2CSlave is a device addressable on the I2C bus by 7-bit address.
type I2CSlave interface {
	// Write delivers the bytes from a write transaction.
	Write(data []byte)
	// Read returns up to size bytes for a read transaction. Returning
	// fewer bytes than requested simulates clock stretching: the I2C
	// controller defers completion to a later Step rather than padding
	// the response, per spec.md §4.F.
	Read(size int) []byte
}

type i2cSlaveEntry struct {
	address uint8
	slave   I2CSlave
}

// i2cTransaction is the in-flight I2C operation the controller is
// driving.
type i2cTransaction struct {
	address   uint8
	write     bool
	writeData []byte
	wanted    int
	got       []byte
	ramAddr   uint32
}

// I2C is the I2C bus controller. Multi-master is not modeled: exactly one
// transaction is in flight at a time, addressed by the 7-bit slave
// address given to StartWrite/StartRead.
type I2C struct {
	ram    []byte
	slaves []i2cSlaveEntry
	txn    *i2cTransaction
}

// NewI2C creates an I2C controller over the shared SRAM buffer DMA
// transfers read from and write into.
func NewI2C(ram []byte) *I2C {
	return &I2C{ram: ram}
}

// AddSlave registers a slave at a fixed 7-bit address.
func (b *I2C) AddSlave(address uint8, slave I2CSlave) {
	b.slaves = append(b.slaves, i2cSlaveEntry{address: address, slave: slave})
}

func (b *I2C) find(address uint8) I2CSlave {
	for _, e := range b.slaves {
		if e.address == address {
			return e.slave
		}
	}
	return nil
}

// StartWrite begins a write transaction of size bytes read from ram
// starting at ramAddress, targeting the slave at address.
func (b *I2C) StartWrite(address uint8, ramAddress, size uint32) {
	b.txn = &i2cTransaction{
		address:   address,
		write:     true,
		writeData: append([]byte(nil), b.ram[ramAddress:ramAddress+size]...),
	}
}

// StartRead begins a read transaction requesting size bytes from the
// slave at address, to be written into ram starting at ramAddress once
// the transaction completes (possibly over several Step calls, if the
// slave stretches the clock).
func (b *I2C) StartRead(address uint8, ramAddress uint32, size int) {
	b.txn = &i2cTransaction{address: address, write: false, wanted: size, ramAddr: ramAddress}
}

// Step advances the in-flight transaction by one round. A write completes
// in a single Step; a read may take several Steps if the slave returns
// fewer bytes than requested. Step returns true once the transaction has
// fully completed (or there was none in flight), writing any collected
// read bytes into ram before returning.
func (b *I2C) Step() bool {
	if b.txn == nil {
		return true
	}
	slave := b.find(b.txn.address)
	if slave == nil {
		b.txn = nil
		return true
	}
	if b.txn.write {
		slave.Write(b.txn.writeData)
		b.txn = nil
		return true
	}

	remaining := b.txn.wanted - len(b.txn.got)
	got := slave.Read(remaining)
	b.txn.got = append(b.txn.got, got...)
	if len(b.txn.got) < b.txn.wanted {
		return false
	}
	copy(b.ram[b.txn.ramAddr:int(b.txn.ramAddr)+b.txn.wanted], b.txn.got)
	b.txn = nil
	return true
}

// Busy reports whether a transaction is still in flight.
func (b *I2C) Busy() bool {
	return b.txn != nil
}
