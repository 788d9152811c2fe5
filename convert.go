package main

import "encoding/binary"

// 暫存器值轉換工具。
// 客戶端只搬運 16 位元暫存器值，符號與縮放由設備模組決定。

// Int16FromWord 將無符號 16 位元值重新解讀為有符號值
func Int16FromWord(w uint16) int16 {
	return int16(w)
}

// Int32FromWords 由兩個暫存器組成有符號 32 位元值 (高位字在前)
func Int32FromWords(high, low uint16) int32 {
	return int32(uint32(high)<<16 | uint32(low))
}

// WordFromInt16 將有符號 16 位元值轉為暫存器值
func WordFromInt16(v int16) uint16 {
	return uint16(v)
}

// RegistersToBytes 將暫存器值轉換為位元組陣列 (Big Endian)
func RegistersToBytes(registers []uint16) []byte {
	bytes := make([]byte, len(registers)*2)
	for i, reg := range registers {
		binary.BigEndian.PutUint16(bytes[i*2:], reg)
	}
	return bytes
}

// BytesToRegisters 將位元組陣列轉換為暫存器值 (Big Endian)
func BytesToRegisters(data []byte) []uint16 {
	registers := make([]uint16, len(data)/2)
	for i := range registers {
		registers[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return registers
}
