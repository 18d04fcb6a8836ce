package filexfer

// Attribute flag bits.
//
// AttrUIDGID and AttrACModTime are only valid in protocol version 3;
// AttrAccessTime and later bits are only valid in version 4 and up.
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-7.1
const (
	AttrSize             = 1 << iota // SSH_FILEXFER_ATTR_SIZE
	AttrUIDGID                       // SSH_FILEXFER_ATTR_UIDGID (v3 only)
	AttrPermissions                  // SSH_FILEXFER_ATTR_PERMISSIONS
	AttrAccessTime                   // SSH_FILEXFER_ATTR_ACCESSTIME (ACMODTIME in v3)
	AttrCreateTime                   // SSH_FILEXFER_ATTR_CREATETIME
	AttrModifyTime                   // SSH_FILEXFER_ATTR_MODIFYTIME
	AttrACL                          // SSH_FILEXFER_ATTR_ACL
	AttrOwnerGroup                   // SSH_FILEXFER_ATTR_OWNERGROUP
	AttrSubsecondTimes               // SSH_FILEXFER_ATTR_SUBSECOND_TIMES
	AttrBits                         // SSH_FILEXFER_ATTR_BITS
	AttrAllocationSize               // SSH_FILEXFER_ATTR_ALLOCATION_SIZE
	AttrTextHint                     // SSH_FILEXFER_ATTR_TEXT_HINT
	AttrMimeType                     // SSH_FILEXFER_ATTR_MIME_TYPE
	AttrLinkCount                    // SSH_FILEXFER_ATTR_LINK_COUNT
	AttrUntranslatedName             // SSH_FILEXFER_ATTR_UNTRANSLATED_NAME
	AttrCTime                        // SSH_FILEXFER_ATTR_CTIME

	// SSH_FILEXFER_ATTR_ACMODTIME is the protocol 3 name for the 0x08 bit,
	// covering both access and modification time as uint32 seconds.
	AttrACModTime = AttrAccessTime

	AttrExtended = 1 << 31 // SSH_FILEXFER_ATTR_EXTENDED
)

// File types, present in the type byte of version 4+ attributes.
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-7.2
const (
	FileTypeRegular     = uint8(iota + 1) // SSH_FILEXFER_TYPE_REGULAR
	FileTypeDirectory                     // SSH_FILEXFER_TYPE_DIRECTORY
	FileTypeSymlink                       // SSH_FILEXFER_TYPE_SYMLINK
	FileTypeSpecial                       // SSH_FILEXFER_TYPE_SPECIAL
	FileTypeUnknown                       // SSH_FILEXFER_TYPE_UNKNOWN
	FileTypeSocket                        // SSH_FILEXFER_TYPE_SOCKET
	FileTypeCharDevice                    // SSH_FILEXFER_TYPE_CHAR_DEVICE
	FileTypeBlockDevice                   // SSH_FILEXFER_TYPE_BLOCK_DEVICE
	FileTypeFIFO                          // SSH_FILEXFER_TYPE_FIFO
)

// Open flags for protocol versions 3 and 4.
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-02#section-6.3
const (
	FlagRead      = 1 << iota // SSH_FXF_READ
	FlagWrite                 // SSH_FXF_WRITE
	FlagAppend                // SSH_FXF_APPEND
	FlagCreate                // SSH_FXF_CREAT
	FlagTruncate              // SSH_FXF_TRUNC
	FlagExclusive             // SSH_FXF_EXCL
)

// Open flags for protocol versions 5 and 6. The low three bits are the access
// disposition.
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-8.1.1.3
const (
	FlagCreateNew        = uint32(iota) // SSH_FXF_CREATE_NEW
	FlagCreateTruncate                  // SSH_FXF_CREATE_TRUNCATE
	FlagOpenExisting                    // SSH_FXF_OPEN_EXISTING
	FlagOpenOrCreate                    // SSH_FXF_OPEN_OR_CREATE
	FlagTruncateExisting                // SSH_FXF_TRUNCATE_EXISTING

	FlagAccessDisposition = uint32(0x00000007) // SSH_FXF_ACCESS_DISPOSITION

	FlagAppendData       = uint32(0x00000008) // SSH_FXF_APPEND_DATA
	FlagAppendDataAtomic = uint32(0x00000010) // SSH_FXF_APPEND_DATA_ATOMIC
	FlagTextMode         = uint32(0x00000020) // SSH_FXF_TEXT_MODE
	FlagBlockRead        = uint32(0x00000040) // SSH_FXF_BLOCK_READ
	FlagBlockWrite       = uint32(0x00000080) // SSH_FXF_BLOCK_WRITE
	FlagBlockDelete      = uint32(0x00000100) // SSH_FXF_BLOCK_DELETE
	FlagBlockAdvisory    = uint32(0x00000200) // SSH_FXF_BLOCK_ADVISORY
	FlagNoFollow         = uint32(0x00000400) // SSH_FXF_NOFOLLOW
	FlagDeleteOnClose    = uint32(0x00000800) // SSH_FXF_DELETE_ON_CLOSE
)

// ACE4 mask bits used in the version 5+ desired-access field. Only the data
// access bits are of interest to a file server.
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-8.1.1.2
const (
	ACEReadData   = uint32(0x00000001) // ACE4_READ_DATA
	ACEWriteData  = uint32(0x00000002) // ACE4_WRITE_DATA
	ACEAppendData = uint32(0x00000004) // ACE4_APPEND_DATA
	ACEReadAttrs  = uint32(0x00000080) // ACE4_READ_ATTRIBUTES
	ACEWriteAttrs = uint32(0x00000100) // ACE4_WRITE_ATTRIBUTES
)

// Rename flags for protocol version 5 and up.
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-8.3
const (
	RenameOverwrite = uint32(1 << iota) // SSH_FXF_RENAME_OVERWRITE
	RenameAtomic                        // SSH_FXF_RENAME_ATOMIC
	RenameNative                        // SSH_FXF_RENAME_NATIVE
)
