package filexfer

// Attributes holds the file attribute data of any protocol version.
//
// Version 3 encodes uid/gid as numeric ids and times as uint32 seconds;
// version 4 and up add a type byte, owner/group names, 64-bit times with
// optional subsecond precision, and further optional fields. Fields here are
// only meaningful when the corresponding flag bit is set.
type Attributes struct {
	Flags uint32

	Type uint8 // always present in v4+

	Size           uint64
	AllocationSize uint64

	UID, GID     uint32 // v3
	Owner, Group string // v4+

	Permissions uint32

	ATime, CreateTime, MTime, CTime                 int64
	ATimeNsec, CreateTimeNsec, MTimeNsec, CTimeNsec uint32

	ACL                         string
	AttribBits, AttribBitsValid uint32
	TextHint                    uint8
	MimeType                    string
	LinkCount                   uint32
	UntranslatedName            string

	Extended []ExtensionPair
}

// Has reports whether every given flag bit is set.
func (a *Attributes) Has(flags uint32) bool {
	return a.Flags&flags == flags
}

// Permission bits of the file-type portion of Permissions.
const (
	modeTypeMask  = uint32(0xF000)
	modeRegular   = uint32(0x8000)
	modeDirectory = uint32(0x4000)
	modeSymlink   = uint32(0xA000)
	modeSocket    = uint32(0xC000)
	modeCharDev   = uint32(0x2000)
	modeBlockDev  = uint32(0x6000)
	modeFIFO      = uint32(0x1000)
)

// TypeFromPermissions derives the v4+ type byte from POSIX mode bits.
func TypeFromPermissions(perm uint32) uint8 {
	switch perm & modeTypeMask {
	case modeRegular:
		return FileTypeRegular
	case modeDirectory:
		return FileTypeDirectory
	case modeSymlink:
		return FileTypeSymlink
	case modeSocket:
		return FileTypeSocket
	case modeCharDev:
		return FileTypeCharDevice
	case modeBlockDev:
		return FileTypeBlockDevice
	case modeFIFO:
		return FileTypeFIFO
	default:
		return FileTypeUnknown
	}
}

// Attribute bits each protocol version defines. Flags are masked on encode
// so a client never sees a field its version does not know how to parse; an
// unmasked v6-only field would desync everything after it.
const (
	v4AttrMask = AttrSize | AttrPermissions | AttrAccessTime | AttrCreateTime |
		AttrModifyTime | AttrACL | AttrOwnerGroup | AttrSubsecondTimes | AttrExtended
	v5AttrMask = v4AttrMask | AttrBits
	v6AttrMask = v5AttrMask | AttrAllocationSize | AttrTextHint | AttrMimeType |
		AttrLinkCount | AttrUntranslatedName | AttrCTime
)

// MarshalInto marshals a onto the end of the given Buffer in the wire format
// of the given protocol version, masked to the attribute bits that version
// defines.
func (a *Attributes) MarshalInto(buf *Buffer, version uint32) {
	if version <= 3 {
		a.marshalV3(buf)
		return
	}

	var flags uint32
	switch version {
	case 4:
		flags = a.Flags & v4AttrMask
	case 5:
		flags = a.Flags & v5AttrMask
	default:
		flags = a.Flags & v6AttrMask
	}

	buf.AppendUint32(flags)
	buf.AppendUint8(a.Type)

	if flags&AttrSize != 0 {
		buf.AppendUint64(a.Size)
	}
	if flags&AttrAllocationSize != 0 {
		buf.AppendUint64(a.AllocationSize)
	}
	if flags&AttrOwnerGroup != 0 {
		buf.AppendString(a.Owner)
		buf.AppendString(a.Group)
	}
	if flags&AttrPermissions != 0 {
		buf.AppendUint32(a.Permissions)
	}
	subsec := flags&AttrSubsecondTimes != 0
	if flags&AttrAccessTime != 0 {
		buf.AppendUint64(uint64(a.ATime))
		if subsec {
			buf.AppendUint32(a.ATimeNsec)
		}
	}
	if flags&AttrCreateTime != 0 {
		buf.AppendUint64(uint64(a.CreateTime))
		if subsec {
			buf.AppendUint32(a.CreateTimeNsec)
		}
	}
	if flags&AttrModifyTime != 0 {
		buf.AppendUint64(uint64(a.MTime))
		if subsec {
			buf.AppendUint32(a.MTimeNsec)
		}
	}
	if flags&AttrCTime != 0 {
		buf.AppendUint64(uint64(a.CTime))
		if subsec {
			buf.AppendUint32(a.CTimeNsec)
		}
	}
	if flags&AttrACL != 0 {
		buf.AppendString(a.ACL)
	}
	if flags&AttrBits != 0 {
		buf.AppendUint32(a.AttribBits)
		if version >= 6 {
			buf.AppendUint32(a.AttribBitsValid)
		}
	}
	if flags&AttrTextHint != 0 {
		buf.AppendUint8(a.TextHint)
	}
	if flags&AttrMimeType != 0 {
		buf.AppendString(a.MimeType)
	}
	if flags&AttrLinkCount != 0 {
		buf.AppendUint32(a.LinkCount)
	}
	if flags&AttrUntranslatedName != 0 {
		buf.AppendString(a.UntranslatedName)
	}
	if flags&AttrExtended != 0 {
		buf.AppendUint32(uint32(len(a.Extended)))
		for i := range a.Extended {
			a.Extended[i].MarshalInto(buf)
		}
	}
}

func (a *Attributes) marshalV3(buf *Buffer) {
	// The v3 bit for times covers atime and mtime together.
	flags := a.Flags & (AttrSize | AttrUIDGID | AttrPermissions | AttrACModTime | AttrExtended)
	buf.AppendUint32(flags)

	if flags&AttrSize != 0 {
		buf.AppendUint64(a.Size)
	}
	if flags&AttrUIDGID != 0 {
		buf.AppendUint32(a.UID)
		buf.AppendUint32(a.GID)
	}
	if flags&AttrPermissions != 0 {
		buf.AppendUint32(a.Permissions)
	}
	if flags&AttrACModTime != 0 {
		buf.AppendUint32(uint32(a.ATime))
		buf.AppendUint32(uint32(a.MTime))
	}
	if flags&AttrExtended != 0 {
		buf.AppendUint32(uint32(len(a.Extended)))
		for i := range a.Extended {
			a.Extended[i].MarshalInto(buf)
		}
	}
}

// UnmarshalFrom unmarshals attributes in the wire format of the given
// protocol version from the given Buffer into a.
func (a *Attributes) UnmarshalFrom(buf *Buffer, version uint32) (err error) {
	if a.Flags, err = buf.ConsumeUint32(); err != nil {
		return err
	}

	if version <= 3 {
		return a.unmarshalV3(buf)
	}

	if a.Type, err = buf.ConsumeUint8(); err != nil {
		return err
	}
	if a.Has(AttrSize) {
		if a.Size, err = buf.ConsumeUint64(); err != nil {
			return err
		}
	}
	if a.Has(AttrAllocationSize) {
		if a.AllocationSize, err = buf.ConsumeUint64(); err != nil {
			return err
		}
	}
	if a.Has(AttrOwnerGroup) {
		if a.Owner, err = buf.ConsumeString(); err != nil {
			return err
		}
		if a.Group, err = buf.ConsumeString(); err != nil {
			return err
		}
	}
	if a.Has(AttrPermissions) {
		if a.Permissions, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}
	subsec := a.Has(AttrSubsecondTimes)
	if a.Has(AttrAccessTime) {
		if a.ATime, a.ATimeNsec, err = consumeTime(buf, subsec); err != nil {
			return err
		}
	}
	if a.Has(AttrCreateTime) {
		if a.CreateTime, a.CreateTimeNsec, err = consumeTime(buf, subsec); err != nil {
			return err
		}
	}
	if a.Has(AttrModifyTime) {
		if a.MTime, a.MTimeNsec, err = consumeTime(buf, subsec); err != nil {
			return err
		}
	}
	if a.Has(AttrCTime) {
		if a.CTime, a.CTimeNsec, err = consumeTime(buf, subsec); err != nil {
			return err
		}
	}
	if a.Has(AttrACL) {
		if a.ACL, err = buf.ConsumeString(); err != nil {
			return err
		}
	}
	if a.Has(AttrBits) {
		if a.AttribBits, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		if version >= 6 {
			if a.AttribBitsValid, err = buf.ConsumeUint32(); err != nil {
				return err
			}
		}
	}
	if a.Has(AttrTextHint) {
		if a.TextHint, err = buf.ConsumeUint8(); err != nil {
			return err
		}
	}
	if a.Has(AttrMimeType) {
		if a.MimeType, err = buf.ConsumeString(); err != nil {
			return err
		}
	}
	if a.Has(AttrLinkCount) {
		if a.LinkCount, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}
	if a.Has(AttrUntranslatedName) {
		if a.UntranslatedName, err = buf.ConsumeString(); err != nil {
			return err
		}
	}

	return a.unmarshalExtended(buf)
}

func (a *Attributes) unmarshalV3(buf *Buffer) (err error) {
	if a.Has(AttrSize) {
		if a.Size, err = buf.ConsumeUint64(); err != nil {
			return err
		}
	}
	if a.Has(AttrUIDGID) {
		if a.UID, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		if a.GID, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}
	if a.Has(AttrPermissions) {
		if a.Permissions, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}
	if a.Has(AttrACModTime) {
		var at, mt uint32
		if at, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		if mt, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		a.ATime, a.MTime = int64(at), int64(mt)
		// Normalize so consumers can test the v4+ bits uniformly: the v3
		// acmodtime bit covers both times.
		a.Flags |= AttrAccessTime | AttrModifyTime
	}

	return a.unmarshalExtended(buf)
}

func (a *Attributes) unmarshalExtended(buf *Buffer) error {
	if !a.Has(AttrExtended) {
		return nil
	}

	count, err := buf.ConsumeUint32()
	if err != nil {
		return err
	}

	a.Extended = make([]ExtensionPair, 0, count)
	for i := uint32(0); i < count; i++ {
		var ext ExtensionPair
		if err := ext.UnmarshalFrom(buf); err != nil {
			return err
		}
		a.Extended = append(a.Extended, ext)
	}

	return nil
}

func consumeTime(buf *Buffer, subsec bool) (sec int64, nsec uint32, err error) {
	u, err := buf.ConsumeUint64()
	if err != nil {
		return 0, 0, err
	}
	sec = int64(u)
	if subsec {
		if nsec, err = buf.ConsumeUint32(); err != nil {
			return 0, 0, err
		}
	}
	return sec, nsec, nil
}
