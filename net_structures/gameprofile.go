package net_structures

import "fmt"

// ProfileProperty is a single signed property attached to a GameProfile,
// e.g. the "textures" property carrying a player's skin.
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Type:GameProfile
type ProfileProperty struct {
	Name      String
	Value     String
	Signature PrefixedOptional[String]
}

func (p ProfileProperty) ToBytes() (ByteArray, error) {
	result, err := p.Name.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("error marshaling property name: %w", err)
	}

	valueBytes, err := p.Value.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("error marshaling property value: %w", err)
	}
	result = append(result, valueBytes...)

	sigBytes, err := p.Signature.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("error marshaling property signature: %w", err)
	}
	result = append(result, sigBytes...)

	return result, nil
}

func (p *ProfileProperty) FromBytes(data ByteArray) (int, error) {
	n, err := p.Name.FromBytes(data)
	if err != nil {
		return 0, fmt.Errorf("error unmarshaling property name: %w", err)
	}
	offset := n

	n, err = p.Value.FromBytes(data[offset:])
	if err != nil {
		return 0, fmt.Errorf("error unmarshaling property value: %w", err)
	}
	offset += n

	n, err = p.Signature.FromBytes(data[offset:])
	if err != nil {
		return 0, fmt.Errorf("error unmarshaling property signature: %w", err)
	}
	offset += n

	return offset, nil
}

// GameProfile identifies an authenticated player: a stable UUID, a display
// name (<=16 characters), and a sequence of signed properties (skin texture,
// cape, etc.) returned by the Mojang session server.
type GameProfile struct {
	ID         UUID
	Name       String
	Properties PrefixedArray[ProfileProperty]
}

func (g GameProfile) ToBytes() (ByteArray, error) {
	result, err := g.ID.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("error marshaling profile id: %w", err)
	}

	nameBytes, err := g.Name.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("error marshaling profile name: %w", err)
	}
	result = append(result, nameBytes...)

	propBytes, err := g.Properties.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("error marshaling profile properties: %w", err)
	}
	result = append(result, propBytes...)

	return result, nil
}

func (g *GameProfile) FromBytes(data ByteArray) (int, error) {
	n, err := g.ID.FromBytes(data)
	if err != nil {
		return 0, fmt.Errorf("error unmarshaling profile id: %w", err)
	}
	offset := n

	n, err = g.Name.FromBytes(data[offset:])
	if err != nil {
		return 0, fmt.Errorf("error unmarshaling profile name: %w", err)
	}
	offset += n

	n, err = g.Properties.FromBytes(data[offset:])
	if err != nil {
		return 0, fmt.Errorf("error unmarshaling profile properties: %w", err)
	}
	offset += n

	return offset, nil
}
