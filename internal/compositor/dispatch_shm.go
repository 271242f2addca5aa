package compositor

func (k *Kernel) dispatchShm(c *Client, msg *Message, d *Decoder) error {
	if msg.Opcode != shmCreatePool {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_shm: bad opcode")
	}
	id, err := d.NewID()
	if err != nil {
		return err
	}
	fd, err := d.FD()
	if err != nil {
		return NewProtocolError(msg.ObjectID, ErrCodeShmInvalidFD, "create_pool: missing fd")
	}
	size, err := d.Int32()
	if err != nil {
		return err
	}
	pool, err := k.Shm.CreatePool(fd, size)
	if err != nil {
		return NewProtocolError(msg.ObjectID, ErrCodeShmInvalidFormat, err.Error())
	}
	c.Bind(id, pool.id, "wl_shm_pool", 1)
	return nil
}

func (k *Kernel) dispatchShmPool(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	pool, ok := k.Shm.poolRegistered(entity)
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown shm_pool")
	}

	switch msg.Opcode {
	case shmPoolCreateBuffer:
		id, err := d.NewID()
		if err != nil {
			return err
		}
		offset, err := d.Int32()
		if err != nil {
			return err
		}
		width, err := d.Int32()
		if err != nil {
			return err
		}
		height, err := d.Int32()
		if err != nil {
			return err
		}
		stride, err := d.Int32()
		if err != nil {
			return err
		}
		format, err := d.Uint32()
		if err != nil {
			return err
		}
		buf, err := k.Shm.CreateBuffer(pool, offset, width, height, stride, ShmFormat(format))
		if err != nil {
			return NewProtocolError(msg.ObjectID, ErrCodeShmInvalidStride, err.Error())
		}
		c.Bind(id, buf.id, "wl_buffer", 1)
		return nil

	case shmPoolResize:
		size, err := d.Int32()
		if err != nil {
			return err
		}
		if err := k.Shm.Resize(pool, size); err != nil {
			return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, err.Error())
		}
		return nil

	case shmPoolDestroy:
		k.Shm.DestroyPool(pool)
		c.Unbind(msg.ObjectID)
		return nil

	default:
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_shm_pool: bad opcode")
	}
}

func (k *Kernel) dispatchBuffer(c *Client, msg *Message, entity EntityID, d *Decoder) error {
	if msg.Opcode != bufferDestroy {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidMethod, "wl_buffer: bad opcode")
	}
	k.Shm.mu.Lock()
	buf, ok := k.Shm.buffers[entity]
	k.Shm.mu.Unlock()
	if !ok {
		return NewProtocolError(msg.ObjectID, ErrCodeInvalidObject, "unknown buffer")
	}
	k.Shm.DestroyBuffer(buf)
	c.Unbind(msg.ObjectID)
	return nil
}
