package schema

// Field names of the NFT entity.
const (
	FieldID            = "id"
	FieldSerieID       = "serieId"
	FieldListed        = "listed"
	FieldOwner         = "owner"
	FieldCreator       = "creator"
	FieldTimestampList = "timestampList"
	FieldNftIpfs       = "nftIpfs"
	FieldCapsuleIpfs   = "capsuleIpfs"
	FieldIsCapsule     = "isCapsule"
	FieldFrozenCaps    = "frozenCaps"
	FieldPrice         = "price"
	FieldMarketplaceID = "marketplaceId"
	FieldTimestampBurn = "timestampBurn"
)

// Field names of the account, series and transfer entities.
const (
	FieldCapsAmount        = "capsAmount"
	FieldLocked            = "locked"
	FieldNftID             = "nftId"
	FieldSeriesID          = "seriesId"
	FieldFrom              = "from"
	FieldTo                = "to"
	FieldTimestamp         = "timestamp"
	FieldTypeOfTransaction = "typeOfTransaction"
	FieldAmount            = "amount"
	FieldExtrinsic         = "extrinsic"
)

// NFT is the NFT record. The burn timestamp is only ever used as a guard.
var NFT = &EntityDefinition{
	Name: "NftEntity",
	Fields: []FieldDefinition{
		{Name: FieldID, Type: FieldTypeID},
		{Name: FieldSerieID, Type: FieldTypeID},
		{Name: FieldListed, Type: FieldTypeFlag},
		{Name: FieldOwner, Type: FieldTypeID},
		{Name: FieldCreator, Type: FieldTypeID},
		{Name: FieldTimestampList, Type: FieldTypeList},
		{Name: FieldNftIpfs, Type: FieldTypeString},
		{Name: FieldCapsuleIpfs, Type: FieldTypeString},
		{Name: FieldIsCapsule, Type: FieldTypeBoolean},
		{Name: FieldFrozenCaps, Type: FieldTypeBoolean},
		{Name: FieldPrice, Type: FieldTypeBigNumber},
		{Name: FieldMarketplaceID, Type: FieldTypeID},
		{Name: FieldTimestampBurn, Type: FieldTypeDatetime, Hidden: true},
	},
}

// Account is the account balance record.
var Account = &EntityDefinition{
	Name: "AccountEntity",
	Fields: []FieldDefinition{
		{Name: FieldID, Type: FieldTypeID, Hidden: true},
		{Name: FieldCapsAmount, Type: FieldTypeBigNumber},
	},
}

// Series is the series record.
var Series = &EntityDefinition{
	Name: "SerieEntity",
	Fields: []FieldDefinition{
		{Name: FieldID, Type: FieldTypeID},
		{Name: FieldOwner, Type: FieldTypeID},
		{Name: FieldLocked, Type: FieldTypeBoolean},
	},
}

// Transfer is the NFT transfer record.
var Transfer = &EntityDefinition{
	Name: "NftTransferEntity",
	Fields: []FieldDefinition{
		{Name: FieldID, Type: FieldTypeID},
		{Name: FieldNftID, Type: FieldTypeID},
		{Name: FieldSeriesID, Type: FieldTypeID},
		{Name: FieldFrom, Type: FieldTypeID},
		{Name: FieldTo, Type: FieldTypeID},
		{Name: FieldTimestamp, Type: FieldTypeDatetime},
		{Name: FieldTypeOfTransaction, Type: FieldTypeString},
		{Name: FieldAmount, Type: FieldTypeBigNumber},
		{Name: FieldExtrinsic, Type: FieldTypeObject, Fields: []FieldDefinition{
			{Name: FieldID, Type: FieldTypeID},
		}},
	},
}
